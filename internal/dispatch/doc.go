// Package dispatch runs the watch loop that turns creation notifications into
// organize jobs.
//
// The Dispatcher waits for a batch from its event source, filters it down to
// new regular files sitting directly in the watch root, and hands each one to
// a bounded pool of workers. Workers run independently of the loop and of each
// other: a slow or failing file never blocks intake beyond the pool limit, and
// a panicking worker is reported as a failed result. The watch registration is
// re-armed after every batch, and a kernel overflow triggers a rescan of the
// root so no file is missed.
package dispatch
