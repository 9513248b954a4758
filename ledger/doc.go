// Package ledger models per-recipient share delivery as an explicit finite
// state machine.
//
// Every escrowed message owns one Entry per recipient, keyed by the
// (message, recipient) pair. An entry moves strictly forward:
//
//	NotSent --Deliver()--> Sent --Confirm(value)--> Received
//
// Deliver hands the generated share out exactly once and erases it from the
// entry, minimizing the window during which the server retains plaintext
// shares. Confirm records the value the recipient sends back; Received is
// terminal. Invalid transitions are reported as no-effect booleans rather
// than errors, because re-polls and duplicate confirmations are expected
// client behavior, not faults.
//
// Entries for different messages are independent; the escrow coordinator
// serializes transitions within one message.
package ledger
