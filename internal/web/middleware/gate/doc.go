// Package gate provides the route gatekeeper middleware of the web application.
//
// Every request path is classified once as Public or Protected against a
// static allow-list of anchored regular expressions:
//
//	/sign-in(.*)
//	/sign-up(.*)
//	/api/webhooks/clerk
//
// Static files are always public. The webhook path is always part of the
// allow-list, the webhook carries its own signature based trust.
//
// Protected requests must carry a Clerk session token, either in the
// __session cookie or as a bearer token. Without a valid token page requests
// are redirected to the sign-in page, everything else gets 401.
// The verified claims are available to handlers through the session package.
//
// Usage:
//
//	policy, err := gate.NewPolicy(cfg.Webserver.PublicRoutes, cfg.Webhook.Path)
//	app.Use(gate.New(gate.Config{Policy: policy, Verifier: verifier, SignInURL: "/sign-in"}))
package gate
