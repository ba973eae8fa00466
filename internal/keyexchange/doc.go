// Package keyexchange talks to the key-bundle directory: the endpoint where
// each identity publishes its public key and looks up everyone else's.
//
// The envelope subsystem treats the directory purely as a lookup. Bundle
// revocation and rotation protocols are out of scope here.
package keyexchange
