// Package alac provides a pure Go Apple Lossless (ALAC) decoder.
//
// The decoder reads ALAC audio from MPEG-4 files (.m4a): it locates the
// alac sample description and the media data, then decodes one frameset
// at a time into interleaved signed PCM samples. It does not use CGO.
//
// # Basic Usage
//
// To decode a file:
//
//	dec, err := alac.Open("song.m4a")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dec.Close()
//
//	for {
//	    block, err := dec.Read(4096)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if block.Len() == 0 {
//	        break // end of stream
//	    }
//	    pcm := block.Bytes() // little-endian signed PCM
//	    _ = pcm
//	}
//
// # API Variants
//
// Stream API:
//   - Open, NewDecoder: parse the container and decode framesets in order
//   - Decoder.Read: returns one frameset per call until the track length is reached
//
// Packet API, for callers that walk the sample table themselves:
//   - NewPacketDecoder, NewPacketDecoderFromCookie: build a decoder from stream parameters
//   - PacketDecoder.DecodePacket: decodes one frameset from one packet
//
// # Output
//
// A Block holds interleaved samples as int32, sign-extended from the
// stream's bit depth (16, 20, 24 or 32). Block.Bytes converts them to
// little-endian PCM and Block.Int16 to 16-bit samples.
//
// # Errors
//
// Every error returned by the package wraps one of the Error codes, so
// callers can test the category with errors.Is(err, alac.ErrFormat) and
// still inspect the underlying cause.
//
// # Thread Safety
//
// Decoder and PacketDecoder instances are NOT safe for concurrent use.
// Each goroutine should have its own decoder.
package alac
