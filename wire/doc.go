// Package wire implements the 9P2000.L wire codec: encoding and decoding
// of every message type exchanged between a 9P2000.L client and server,
// framed as size[4] type[1] tag[2] body.
//
// Unlike a byte-slice-view codec, messages here are decoded into plain
// Go structs; callers that need to avoid the allocation and copy this
// implies should reach for a streaming scanner instead. For a file
// server fielding one 9P2000.L message per request, the simplicity of
// working with concrete struct fields outweighs that cost.
package wire
