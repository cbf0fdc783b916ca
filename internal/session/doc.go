// Package session keeps the authenticated user's token and cached profile.
// A Context is created once at startup, passed explicitly to whoever needs
// it, restored from disk by Init and cleared by Teardown on logout.
package session
