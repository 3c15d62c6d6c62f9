package main

import (
	"net/http"

	"github.com/sushihentaime/dreamblog/internal/commentservice"
)

type commentRequest struct {
	Content string `json:"content"`
}

// readIDParams reads the named route ids in order.
func (app *application) readIDParams(r *http.Request, keys ...string) ([]int, error) {
	ids := make([]int, len(keys))
	for i, key := range keys {
		id, err := app.readIDParam(r, key)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	qs := r.URL.Query()

	page, err := app.readInt(qs, "page", 1)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	limit, err := app.readInt(qs, "limit", commentservice.DefaultPageSize)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	result, err := app.commentService.ListComments(r.Context(), id, page, limit)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comments": result}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) addCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input commentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	comment, err := app.commentService.AddComment(r.Context(), user.ID, id, input.Content)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) editCommentHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input commentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	comment, err := app.commentService.EditComment(r.Context(), user.ID, ids[0], ids[1], input.Content)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"comment": comment}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.commentService.DeleteComment(r.Context(), app.contextGetActor(r), ids[0], ids[1])
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "comment deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) likeCommentHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	likes, err := app.commentService.ToggleLike(r.Context(), user.ID, ids[0], ids[1])
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"likes": likes}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) pinCommentHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	pinned, err := app.commentService.Pin(r.Context(), user.ID, ids[0], ids[1])
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"is_pinned": pinned}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) toggleCommentsEnabledHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	enabled, err := app.commentService.ToggleCommentsEnabled(r.Context(), user.ID, id)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"public_comments_enabled": enabled}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) addReplyHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input commentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	reply, err := app.commentService.AddReply(r.Context(), user.ID, ids[0], ids[1], input.Content)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"reply": reply}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) editReplyHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId", "replyId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	var input commentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	reply, err := app.commentService.EditReply(r.Context(), user.ID, ids[0], ids[1], ids[2], input.Content)
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reply": reply}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteReplyHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId", "replyId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	err = app.commentService.DeleteReply(r.Context(), app.contextGetActor(r), ids[0], ids[1], ids[2])
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "reply deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) likeReplyHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := app.readIDParams(r, "id", "commentId", "replyId")
	if err != nil {
		app.badRequestErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	likes, err := app.commentService.ToggleReplyLike(r.Context(), user.ID, ids[0], ids[1], ids[2])
	if err != nil {
		app.serviceErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"likes": likes}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
