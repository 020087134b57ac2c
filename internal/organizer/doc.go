// Package organizer files newly arrived downloads into category directories
// under the watch root.
//
// A Pipeline settles a reported path, classifies it by extension and hands it
// to the Placer. The Placer creates the category directory on demand, picks a
// collision-free destination name (appending a timestamp when the plain name
// is taken) and moves the file without replacing anything already there.
// Every attempt produces exactly one Result describing whether the file was
// moved, skipped or left in place after a failure.
package organizer
