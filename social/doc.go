// Package social implements the domain operations of the app: users, posts,
// comments, follows and notifications.
//
// Every operation validates its input, performs its primary store call and
// returns either the resulting document or an *Error whose Kind tells callers
// whether the failure was a missing document, a refused permission, an
// unreachable store, invalid input or a lost compare-and-set. Failures are
// logged where they happen and recorded on the operation's span.
//
// Notifications produced as a side effect (a comment on someone else's post,
// a like, a save, a follow) are best effort: an error or panic while creating
// them is logged and never fails the operation that triggered them.
package social
