/*
Package domain defines the core types of the donation conversation.

A Session is the per-sender state: the current Step, the collected field Data,
and the flags that drive edit redirection, the post-confirmation sub-state and
the inactivity nudge. A DonationRecord is the write-only result emitted once a
sender confirms. Message templates live in messages.go.
*/
package domain
