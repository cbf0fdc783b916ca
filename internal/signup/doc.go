// Package signup defines the three onboarding flows (company, contractor,
// retailer) as step tables, a registry to look them up by account type, and
// the tagged payloads each flow hands to the account service.
package signup
