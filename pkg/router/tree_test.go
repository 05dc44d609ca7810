package router

import "testing"

func mustInsert(t *testing.T, r *Registry, segments []string, method, filePath string) {
	t.Helper()
	if err := r.Insert(EncodePath(segments), method, ResourceRef{FilePath: filePath}); err != nil {
		t.Fatalf("Insert(%v, %s): %v", segments, method, err)
	}
}

func TestMatchLiteral(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"users"}, "GET", "users/index.go")

	table, params, ok := r.Match("/users")
	if !ok {
		t.Fatal("Match(/users) = no match")
	}
	if ref, ok := table.Lookup("GET"); !ok || ref.FilePath != "users/index.go" {
		t.Errorf("Lookup(GET) = %+v, %v", ref, ok)
	}
	if len(params) != 0 {
		t.Errorf("params = %v, want empty", params)
	}
}

func TestMatchParamExtraction(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"users", "[userId]"}, "GET", "users/[userId]/index.go")

	_, params, ok := r.Match("/users/4124")
	if !ok {
		t.Fatal("Match(/users/4124) = no match")
	}
	if params.Get("userId") != "4124" {
		t.Errorf("params[userId] = %q, want %q", params.Get("userId"), "4124")
	}
}

func TestMatchExactOverDynamic(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"users", "me"}, "GET", "users/me/index.go")
	mustInsert(t, r, []string{"users", "[id]"}, "GET", "users/[id]/index.go")

	table, params, ok := r.Match("/users/me")
	if !ok {
		t.Fatal("Match(/users/me) = no match")
	}
	ref, _ := table.Lookup("GET")
	if ref.FilePath != "users/me/index.go" {
		t.Errorf("resolved %q, want literal branch", ref.FilePath)
	}
	if _, bound := params["id"]; bound {
		t.Error("literal match must not bind the dynamic param")
	}

	table, params, ok = r.Match("/users/77")
	if !ok {
		t.Fatal("Match(/users/77) = no match")
	}
	ref, _ = table.Lookup("GET")
	if ref.FilePath != "users/[id]/index.go" {
		t.Errorf("resolved %q, want dynamic branch", ref.FilePath)
	}
	if params.Get("id") != "77" {
		t.Errorf("params[id] = %q, want %q", params.Get("id"), "77")
	}
}

func TestMatchNoBacktracking(t *testing.T) {
	// /users/me/profile exists only under the literal branch. A request
	// for /users/42/profile takes the dynamic child at level two and then
	// dead-ends; the descent must not back up and retry.
	r := NewRegistry()
	mustInsert(t, r, []string{"users", "me", "profile"}, "GET", "users/me/profile/index.go")
	mustInsert(t, r, []string{"users", "[id]"}, "GET", "users/[id]/index.go")

	if _, _, ok := r.Match("/users/42/profile"); ok {
		t.Error("Match(/users/42/profile) should not match")
	}
}

func TestMatchExtraSegments(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"users", "[id]"}, "GET", "users/[id]/index.go")

	if _, _, ok := r.Match("/users/4124/extra"); ok {
		t.Error("Match(/users/4124/extra) should not match")
	}
}

func TestMatchEmptySegmentsDiscarded(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"a", "b"}, "GET", "a/b/index.go")

	for _, path := range []string{"/a/b", "/a//b/", "//a/b//", "a/b"} {
		if _, _, ok := r.Match(path); !ok {
			t.Errorf("Match(%q) = no match, want match", path)
		}
	}
}

func TestMatchRoot(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, nil, "GET", "index.go")

	table, _, ok := r.Match("/")
	if !ok {
		t.Fatal("Match(/) = no match")
	}
	if _, ok := table.Lookup("GET"); !ok {
		t.Error("root method table missing GET")
	}
}

func TestMatchInteriorNodeHasNoMethods(t *testing.T) {
	// /users is a routing prefix only; reaching it is a successful path
	// match with an empty method table.
	r := NewRegistry()
	mustInsert(t, r, []string{"users", "[id]"}, "GET", "users/[id]/index.go")

	table, _, ok := r.Match("/users")
	if !ok {
		t.Fatal("Match(/users) should reach the interior node")
	}
	if len(table) != 0 {
		t.Errorf("interior table = %v, want empty", table)
	}
}

func TestMatchNodeIsBothRouteAndPrefix(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"users"}, "GET", "users/index.go")
	mustInsert(t, r, []string{"users", "[id]"}, "GET", "users/[id]/index.go")

	table, _, ok := r.Match("/users")
	if !ok {
		t.Fatal("Match(/users) = no match")
	}
	if _, ok := table.Lookup("GET"); !ok {
		t.Error("/users lost its own method table")
	}

	if _, _, ok := r.Match("/users/9"); !ok {
		t.Error("/users/9 should still match the child")
	}
}

func TestInsertLastWriteWins(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"users"}, "GET", "old.go")
	mustInsert(t, r, []string{"users"}, "GET", "new.go")

	table, _, _ := r.Match("/users")
	if ref, _ := table.Lookup("GET"); ref.FilePath != "new.go" {
		t.Errorf("FilePath = %q, want last write", ref.FilePath)
	}
}

func TestInsertRejectsConflictingDynamicSiblings(t *testing.T) {
	r := NewRegistry()
	mustInsert(t, r, []string{"users", "[id]"}, "GET", "users/[id]/index.go")

	err := r.Insert(EncodePath([]string{"users", "[name]"}), "GET", ResourceRef{FilePath: "users/[name]/index.go"})
	if err == nil {
		t.Fatal("second dynamic sibling with a different name must be rejected")
	}

	// Re-inserting the same param name merges instead.
	mustInsert(t, r, []string{"users", "[id]"}, "POST", "users/[id]/index.go")
	table, _, _ := r.Match("/users/5")
	if len(table) != 2 {
		t.Errorf("method table = %v, want GET and POST", table)
	}
}

func TestMethodTableLookupCaseInsensitive(t *testing.T) {
	table := MethodTable{"Get": {FilePath: "a.go"}}

	if _, ok := table.Lookup("GET"); !ok {
		t.Error("Lookup(GET) should find mixed-case stored method")
	}
	if _, ok := table.Lookup("get"); !ok {
		t.Error("Lookup(get) should normalize the request method")
	}
	if _, ok := table.Lookup("POST"); ok {
		t.Error("Lookup(POST) should miss")
	}
}
