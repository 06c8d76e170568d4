// Package request provides a fluent builder for single-shot HTTP and HTTPS
// requests.
//
// A Builder owns one mutable Options record. Every With* call mutates that
// record in place and returns the same Builder, so calls take effect in the
// order they are chained. Nothing touches the network until the request is
// dispatched with Send or Go.
//
// Basic Usage:
//
//	resp, err := request.Get("https://api.example.com/users").
//	    WithQuery("limit", 10).
//	    WithHeader("Authorization", "Bearer token").
//	    Send(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Status: %d\n", resp.StatusCode)
//
// Path Rewriting:
//
//	// DELETE /users/42/sessions?all=true
//	request.Del("https://api.example.com/users/0/sessions").
//	    WithQuery("all", true).
//	    WithPathSection(1, "42")
//
// Deferred Results:
//
// Go starts the exchange in the background and returns a Future:
//
//	future := request.Post("https://api.example.com/items").
//	    WithJSON(item).
//	    Go(ctx)
//
//	// ... other work ...
//
//	resp, err := future.Await()
//
// Response Bodies:
//
// The body is read completely and decoded as UTF-8 text. When the response
// Content-Type contains "json" the text is parsed and Response.Body holds
// the decoded value (map[string]any, []any, string, float64, bool or nil);
// otherwise Body holds the raw string. Any status code, including 4xx and
// 5xx, produces a Response. Only transport failures and malformed JSON
// produce an error.
//
// Thread Safety:
//
// A Builder must not be shared between goroutines while it is being
// configured. Client and Future are safe for concurrent use.
package request
