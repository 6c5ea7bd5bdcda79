// Package shoutcast provides ICY/Shoutcast stream reading for recording.
//
// It separates transport from framing:
//   - Stream owns the HTTP connection, negotiates in-band metadata via the
//     Icy-MetaData request header and resolves .pls/.m3u playlist URLs to the
//     actual stream URL
//   - Decoder is a pure byte-cursor state machine that splits the raw stream
//     into audio chunks and metadata blocks, with exact byte accounting
//
// No client timeout is set on the stream body so long-running recording is
// supported; cancellation happens through the request context.
package shoutcast
