package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/dreamblog/internal/common"
	"github.com/sushihentaime/dreamblog/internal/userservice"
)

type contextKey string

const userContextKey = contextKey("user")

func (app *application) contextSetUser(r *http.Request, user *userservice.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

func (app *application) contextGetUser(r *http.Request) *userservice.User {
	user, ok := r.Context().Value(userContextKey).(*userservice.User)
	if !ok {
		panic("missing user value in request context")
	}
	return user
}

// contextGetActor is the identity handed to the services.
func (app *application) contextGetActor(r *http.Request) common.Actor {
	user := app.contextGetUser(r)
	return common.Actor{ID: user.ID, Roles: user.Roles}
}
