package router

import (
	"net/http"
	"testing"

	"github.com/strataweb/strata/pkg/codec"
	"github.com/strataweb/strata/pkg/web"
)

func okHandler(body string) func(*web.Request) (*web.Response, error) {
	return func(*web.Request) (*web.Response, error) {
		return web.Text(http.StatusOK, body), nil
	}
}

func TestRouteMatching(t *testing.T) {
	r := New()
	r.GET("/users/:id", func(req *web.Request) (*web.Response, error) {
		return web.Text(http.StatusOK, "user "+req.Params.Get("id")), nil
	})
	r.GET("/files/*filepath", func(req *web.Request) (*web.Response, error) {
		return web.Text(http.StatusOK, "file "+req.Params.Get("filepath")), nil
	})

	resp, err := r.HandleRequest(web.NewRequest("GET", "/users/42", nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "user 42" {
		t.Errorf("body = %q, want %q", resp.Body, "user 42")
	}

	resp, err = r.HandleRequest(web.NewRequest("GET", "/files/docs/readme.txt", nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "file /docs/readme.txt" {
		t.Errorf("body = %q, want %q", resp.Body, "file /docs/readme.txt")
	}
}

func TestTypedParams(t *testing.T) {
	r := New()
	r.GET("/items/:id", func(req *web.Request) (*web.Response, error) {
		id, ok := req.Params.Int("id")
		if !ok {
			return web.Error(http.StatusBadRequest), nil
		}
		if id != 7 {
			t.Errorf("id = %d, want 7", id)
		}
		return web.Empty(http.StatusOK), nil
	})

	resp, err := r.HandleRequest(web.NewRequest("GET", "/items/7", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	resp, err = r.HandleRequest(web.NewRequest("GET", "/items/seven", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status for non-numeric id = %d, want 400", resp.StatusCode)
	}
}

func TestNotFound(t *testing.T) {
	r := New()
	r.GET("/known", okHandler("yes"))

	resp, err := r.HandleRequest(web.NewRequest("GET", "/unknown", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	r.NotFound(func(*web.Request) (*web.Response, error) {
		return web.Text(http.StatusNotFound, "custom miss"), nil
	})
	resp, _ = r.HandleRequest(web.NewRequest("GET", "/unknown", nil))
	if string(resp.Body) != "custom miss" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	r := New()
	r.GET("/resource", okHandler("got"))
	r.PUT("/resource", okHandler("put"))

	resp, err := r.HandleRequest(web.NewRequest("POST", "/resource", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
	allow := resp.Header.Values("Allow")
	if len(allow) != 2 {
		t.Errorf("Allow = %v, want GET and PUT", allow)
	}
}

func TestGroups(t *testing.T) {
	r := New()
	api := r.Group("/api")
	api.GET("/ping", okHandler("pong"))
	v2 := api.Group("/v2")
	v2.POST("/ping", okHandler("pong2"))

	resp, err := r.HandleRequest(web.NewRequest("GET", "/api/ping", nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "pong" {
		t.Errorf("body = %q", resp.Body)
	}

	resp, err = r.HandleRequest(web.NewRequest("POST", "/api/v2/ping", nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Body) != "pong2" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestHandleTyped(t *testing.T) {
	type createReq struct {
		Name string `json:"name"`
	}
	type createResp struct {
		Greeting string `json:"greeting"`
	}

	r := New()
	HandleTyped(r, http.MethodPost, "/greet", codec.NewJSONCodec[createReq, createResp](),
		func(req *web.Request, data createReq) (createResp, error) {
			return createResp{Greeting: "hello " + data.Name}, nil
		})

	resp, err := r.HandleRequest(web.NewRequest("POST", "/greet", []byte(`{"name":"ada"}`)))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"greeting":"hello ada"}` {
		t.Errorf("body = %q", resp.Body)
	}

	// Undecodable body short-circuits with 400, without invoking the handler.
	resp, err = r.HandleRequest(web.NewRequest("POST", "/greet", []byte(`{`)))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
