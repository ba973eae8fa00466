// Package parlachat provides the Go client SDK for the Parlachat
// end-to-end encrypted messaging envelope scheme.
//
// Plaintext message content (text, voice-note metadata, image captions,
// file blobs) is sealed into self-describing envelopes so that only the
// intended recipients can recover it; the transport, UI, and persistence
// layers only ever see sealed envelopes.
//
// The scheme is a static hybrid: each message gets a fresh AES-256 session
// key that seals the payload once, and that session key is wrapped with
// RSA-OAEP independently for the sender itself, every recipient, and an
// optional audit identity.
//
// Basic usage:
//
//	client, err := parlachat.New("user-1",
//	    parlachat.WithKeyStore(store),
//	    parlachat.WithDirectory(directory),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// First run: generate the local key pair and publish the public half.
//	if err := client.Register(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Seal an outgoing message.
//	env, err := client.SendText(ctx, "hola", "user-2")
//
//	// Unseal an inbound one. Resolve never panics and never returns an
//	// error to render: every failure path ends in a safe placeholder.
//	res := client.Read(ctx, rawContent, senderID)
//	fmt.Println(res.Text)
package parlachat
