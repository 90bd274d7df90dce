// Package visitor implements visitor intake: the atomic registration
// pipeline, partial updates, deletion and the follow-up status machine.
//
// Registration resolves the responsible group by name before any write, hands
// the address and visitor rows to the repository as one unit of work and,
// only after that unit commits, invokes the post-commit Notifier.
package visitor
