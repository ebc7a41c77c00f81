package httpapi

import (
	"net/http"
	"strings"

	"curalink.org/internal/stream"
)

type createForumRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type createPostRequest struct {
	ForumID string `json:"forum_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type createReplyRequest struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

func (a *API) handleForumsCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		forums, err := a.forums.ListForums(r.Context())
		if err != nil {
			handleForumError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, forums)
	case http.MethodPost:
		var req createForumRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
			return
		}
		f, err := a.forums.CreateForum(r.Context(), user, req.Title, req.Description, req.Category)
		if err != nil {
			handleForumError(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/forums/"+f.ID)
		writeJSON(w, http.StatusCreated, f)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleForumResource dispatches /api/forums/{id} and /api/forums/{id}/posts.
func (a *API) handleForumResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := currentUser(w, r); !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/forums/")
	if id, found := strings.CutSuffix(rest, "/posts"); found {
		posts, err := a.forums.ListPosts(r.Context(), id)
		if err != nil {
			handleForumError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, posts)
		return
	}
	id := resourceID(r.URL.Path, "/api/forums/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "forum not found")
		return
	}
	f, err := a.forums.GetForum(r.Context(), id)
	if err != nil {
		handleForumError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *API) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
		return
	}
	p, err := a.forums.CreatePost(r.Context(), user, req.ForumID, req.Title, req.Content)
	if err != nil {
		handleForumError(w, r, err)
		return
	}
	a.publish(stream.Event{Type: stream.TypePostCreated, ActorID: user.ID, ItemID: p.ID})
	writeJSON(w, http.StatusCreated, p)
}

// handlePostResource serves GET /api/forums/posts/{id}/replies.
func (a *API) handlePostResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := currentUser(w, r); !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/forums/posts/")
	id, found := strings.CutSuffix(rest, "/replies")
	if !found || id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, reasonNotFound, "resource not found")
		return
	}
	replies, err := a.forums.ListReplies(r.Context(), id)
	if err != nil {
		handleForumError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}

func (a *API) handleReplyCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req createReplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, reasonValidation, err.Error())
		return
	}
	reply, err := a.forums.CreateReply(r.Context(), user, req.PostID, req.Content)
	if err != nil {
		handleForumError(w, r, err)
		return
	}
	a.publish(stream.Event{Type: stream.TypeReplyCreated, ActorID: user.ID, ItemID: reply.ID})
	writeJSON(w, http.StatusCreated, reply)
}
