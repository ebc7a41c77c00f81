package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/metrics":                      "/metrics",
		"/api/trials":                   "/api/trials",
		"/api/trials/NCT01234567":       "/api/trials/:id",
		"/api/trials?keywords=cancer":   "/api/trials",
		"/api/publications/p-1":         "/api/publications/:id",
		"/api/forums/f-1/posts":         "/api/forums/:id/posts",
		"/api/connections/c-1/respond":  "/api/connections/:id/respond",
		"/api/meeting-requests/m-9/respond": "/api/meeting-requests/:id/respond",
		"/api/auth/login":               "/api/auth/login",
		"/api/favorites/f-3":            "/api/favorites/:id",
		"/api/experts/e-2":              "/api/experts/:id",
		"/api/forums/posts":             "/api/forums/posts",
		"/api/forums/posts/p-1/replies": "/api/forums/posts/:id/replies",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
