package main

import (
	"net/http"
	"time"

	"github.com/sushihentaime/dreamblog/internal/userservice"
)

type registerUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var input registerUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user, _, err := app.userService.Register(r.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	env := envelope{"user": user, "message": "a verification link has been sent to your email address"}
	err = app.writeJSON(w, http.StatusCreated, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) confirmEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := app.readStringParam(r, "token")

	err := app.userService.ConfirmEmail(r.Context(), token)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "email address verified"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type loginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id"`
}

func (app *application) loginUserHandler(w http.ResponseWriter, r *http.Request) {
	var input loginUserRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	token, err := app.userService.Login(r.Context(), input.Email, input.Password, input.DeviceID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"authentication_token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var input refreshTokenRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	token, err := app.userService.RefreshAccessToken(r.Context(), input.RefreshToken)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"access_token": token}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) requestDeletionHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	_, err := app.userService.RequestDeletion(r.Context(), user.ID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	env := envelope{"message": "a confirmation link has been sent to your email address"}
	err = app.writeJSON(w, http.StatusAccepted, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) confirmDeletionHandler(w http.ResponseWriter, r *http.Request) {
	token := app.readStringParam(r, "token")

	date, err := app.userService.ConfirmDeletion(r.Context(), token)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"message":       "your account is scheduled for deletion",
		"deletion_date": date.Format(time.RFC3339),
	}
	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) cancelDeletionHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	err := app.userService.CancelDeletion(r.Context(), user.ID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "account deletion cancelled"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := app.contextGetUser(r)

	profile, err := app.userService.GetProfile(r.Context(), user.ID)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": profile}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var input userservice.ProfilePatch

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	profile, err := app.userService.UpdateProfile(r.Context(), user.ID, input)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"user": profile}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
