package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/events"
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/validation"
)

// PostHandler serves the community feed under /api/posts.
type PostHandler struct {
	Responder
	posts     db.PostCollection
	users     db.UserCollection
	publisher events.Publisher
	now       func() time.Time
}

// NewPostHandler creates a post handler.
func NewPostHandler(rs Responder, posts db.PostCollection, users db.UserCollection, publisher events.Publisher) *PostHandler {
	return &PostHandler{
		Responder: rs,
		posts:     posts,
		users:     users,
		publisher: publisher,
		now:       time.Now,
	}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}

	var req models.PostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.Error(w, r, err)
		return
	}
	author, err := h.users.FindUserByID(r.Context(), userID.Hex())
	if err != nil {
		h.Error(w, r, err)
		return
	}

	post := models.Post{
		AuthorID:   author.ID,
		AuthorName: author.Name,
		Content:    req.Content,
	}
	if err := h.posts.InsertPost(r.Context(), &post); err != nil {
		h.Error(w, r, err)
		return
	}

	events.Emit(r.Context(), h.publisher, events.Event{
		Kind: events.PostCreated, UserID: userID.Hex(), EntityID: post.ID.Hex(),
	})
	h.Success(w, http.StatusCreated, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	posts, total, err := h.posts.FindVisiblePosts(r.Context(), page)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.SendPage(w, posts, page, total)
}

// Delete removes a post. Only its author may do so; anyone else gets 404.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	if err := h.posts.DeactivatePost(r.Context(), userID, r.PathValue("id")); err != nil {
		h.Error(w, r, err)
		return
	}
	h.SendMessage(w, "Post deleted")
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, models.ReactionLike)
}

func (h *PostHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.react(w, r, models.ReactionDislike)
}

func (h *PostHandler) react(w http.ResponseWriter, r *http.Request, kind models.Reaction) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}
	post, err := h.posts.React(r.Context(), r.PathValue("id"), userID, kind)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, post)
}

// Report files a complaint. Each user may report a post once; enough
// reports hide it from the feed.
func (h *PostHandler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return
	}

	var req models.ReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.Error(w, r, err)
		return
	}
	report := models.Report{UserID: userID, Reason: req.Reason, CreatedAt: h.now()}
	if _, err := h.posts.AddReport(r.Context(), r.PathValue("id"), report); err != nil {
		if errors.Is(err, db.ErrAlreadyReported) {
			h.Fail(w, http.StatusConflict, "Post already reported")
			return
		}
		h.Error(w, r, err)
		return
	}
	h.SendMessage(w, "Post reported")
}
