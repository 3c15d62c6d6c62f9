package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// accounts
	router.HandlerFunc(http.MethodPost, "/v1/auth/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodGet, "/v1/auth/email-confirmation/:token", app.confirmEmailHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/login", app.rateLimit(app.loginUserHandler))
	router.HandlerFunc(http.MethodPost, "/v1/auth/token/refresh", app.refreshTokenHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/account-deletion/request", app.requireAuthenticatedUser(app.requestDeletionHandler))
	router.HandlerFunc(http.MethodGet, "/v1/auth/account-deletion/confirm/:token", app.confirmDeletionHandler)
	router.HandlerFunc(http.MethodPost, "/v1/auth/account-deletion/cancel", app.requireAuthenticatedUser(app.cancelDeletionHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/profile", app.requireAuthenticatedUser(app.getProfileHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/users/profile", app.requireAuthenticatedUser(app.updateProfileHandler))

	// posts
	router.HandlerFunc(http.MethodGet, "/v1/tags", app.listTagsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/search/blogs", app.searchBlogsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getAllBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requireVerifiedUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPatch, "/v1/blogs/:id", app.requireVerifiedUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireVerifiedUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/review/request", app.requireVerifiedUser(app.requestReviewHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/review/submit", app.requireVerifiedUser(app.submitReviewHandler))

	// comments
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id/comments", app.listCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments", app.requireVerifiedUser(app.addCommentHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments-enabled/toggle", app.requireVerifiedUser(app.toggleCommentsEnabledHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/blogs/:id/comments/:commentId", app.requireVerifiedUser(app.editCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id/comments/:commentId", app.requireVerifiedUser(app.deleteCommentHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments/:commentId/like", app.requireVerifiedUser(app.likeCommentHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments/:commentId/pin", app.requireVerifiedUser(app.pinCommentHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments/:commentId/replies", app.requireVerifiedUser(app.addReplyHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/blogs/:id/comments/:commentId/replies/:replyId", app.requireVerifiedUser(app.editReplyHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id/comments/:commentId/replies/:replyId", app.requireVerifiedUser(app.deleteReplyHandler))
	router.HandlerFunc(http.MethodPost, "/v1/blogs/:id/comments/:commentId/replies/:replyId/like", app.requireVerifiedUser(app.likeReplyHandler))

	return app.recoverPanic(app.logRequest(app.authenticate(router)))
}
