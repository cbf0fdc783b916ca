// Package wizard drives a strictly sequential multi-step form. The Controller
// owns the current step, validates a step before leaving it, and hands the
// accumulated values to a Gateway once the final step passes. Input is locked
// while a submission is in flight; a failed submission leaves the wizard on the
// final step with every value intact so the user can retry.
package wizard
