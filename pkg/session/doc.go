/*
Package session implements per-sender session access.

The Manager serializes every load, mutate and persist cycle for one sender
behind a reference-counted in-process mutex, optionally combined with a
distributed lock so that several replicas behind the same webhook URL never
interleave two messages from the same phone number.
*/
package session
