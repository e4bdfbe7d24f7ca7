package alactest

import "encoding/binary"

// Cookie is the ALACSpecificConfig carried in the sample description.
type Cookie struct {
	SamplesPerFrame   uint32
	CompatibleVersion uint8
	BitsPerSample     uint8
	HistoryMultiplier uint8
	InitialHistory    uint8
	MaximumK          uint8
	Channels          uint8
	MaxRun            uint16
	MaxFrameBytes     uint32
	AvgBitRate        uint32
	SampleRate        uint32
}

// DefaultCookie returns a 4096-frame, 16-bit stereo 44.1 kHz configuration
// with Apple's default history constants.
func DefaultCookie() Cookie {
	return Cookie{
		SamplesPerFrame:   4096,
		BitsPerSample:     16,
		HistoryMultiplier: 40,
		InitialHistory:    10,
		MaximumK:          14,
		Channels:          2,
		MaxRun:            255,
		SampleRate:        44100,
	}
}

// Stream returns the frame coding parameters matching the cookie.
func (c Cookie) Stream() StreamConfig {
	return StreamConfig{
		SamplesPerFrame: c.SamplesPerFrame,
		BitsPerSample:   c.BitsPerSample,
		Residual: ResidualParams{
			HistoryMultiplier: uint32(c.HistoryMultiplier),
			InitialHistory:    uint32(c.InitialHistory),
			MaximumK:          uint32(c.MaximumK),
		},
	}
}

// Bytes returns the 24-byte big-endian ALACSpecificConfig.
func (c Cookie) Bytes() []byte {
	b := make([]byte, 24)
	binary.BigEndian.PutUint32(b[0:], c.SamplesPerFrame)
	b[4] = c.CompatibleVersion
	b[5] = c.BitsPerSample
	b[6] = c.HistoryMultiplier
	b[7] = c.InitialHistory
	b[8] = c.MaximumK
	b[9] = c.Channels
	binary.BigEndian.PutUint16(b[10:], c.MaxRun)
	binary.BigEndian.PutUint32(b[12:], c.MaxFrameBytes)
	binary.BigEndian.PutUint32(b[16:], c.AvgBitRate)
	binary.BigEndian.PutUint32(b[20:], c.SampleRate)
	return b
}

// Box returns a box with a 32-bit size header.
func Box(typ string, payload ...[]byte) []byte {
	size := 8
	for _, p := range payload {
		size += len(p)
	}
	out := make([]byte, 8, size)
	binary.BigEndian.PutUint32(out, uint32(size))
	copy(out[4:], typ)
	for _, p := range payload {
		out = append(out, p...)
	}
	return out
}

// LargeBox returns a box using the 64-bit largesize header form.
func LargeBox(typ string, payload []byte) []byte {
	out := make([]byte, 16, 16+len(payload))
	binary.BigEndian.PutUint32(out, 1)
	copy(out[4:], typ)
	binary.BigEndian.PutUint64(out[8:], uint64(16+len(payload)))
	return append(out, payload...)
}

// M4A describes a minimal single-track ALAC file.
type M4A struct {
	Cookie             Cookie
	Duration           uint64
	MediaHeaderVersion uint8
	Timescale          uint32 // 0 means the sample rate
	Payload            []byte
	MoovAfterMdat      bool
	LeadingTextTrack   bool   // prepend a non-audio trak
	HighTag, LowTag    string // override the sample entry tags; empty means "alac"
	LargeMdat          bool
}

// SampleDescription returns the stsd payload.
func (m M4A) SampleDescription() []byte {
	highTag, lowTag := "alac", "alac"
	if m.HighTag != "" {
		highTag = m.HighTag
	}
	if m.LowTag != "" {
		lowTag = m.LowTag
	}

	lowBox := Box(lowTag, make([]byte, 4), m.Cookie.Bytes())

	entry := make([]byte, 36)
	binary.BigEndian.PutUint32(entry[0:], uint32(36+len(lowBox)))
	copy(entry[4:], highTag)
	binary.BigEndian.PutUint16(entry[14:], 1) // data reference index
	binary.BigEndian.PutUint16(entry[24:], uint16(m.Cookie.Channels))
	binary.BigEndian.PutUint16(entry[26:], uint16(m.Cookie.BitsPerSample))
	binary.BigEndian.PutUint32(entry[32:], m.Cookie.SampleRate<<16)

	head := make([]byte, 8)
	binary.BigEndian.PutUint32(head[4:], 1)
	out := append(head, entry...)
	return append(out, lowBox...)
}

// MediaHeader returns the mdhd payload.
func (m M4A) MediaHeader() []byte {
	timescale := m.Timescale
	if timescale == 0 {
		timescale = m.Cookie.SampleRate
	}
	if m.MediaHeaderVersion == 1 {
		b := make([]byte, 36)
		b[0] = 1
		binary.BigEndian.PutUint32(b[20:], timescale)
		binary.BigEndian.PutUint64(b[24:], m.Duration)
		return b
	}
	b := make([]byte, 24)
	b[0] = m.MediaHeaderVersion
	binary.BigEndian.PutUint32(b[12:], timescale)
	binary.BigEndian.PutUint32(b[16:], uint32(m.Duration))
	return b
}

func (m M4A) track() []byte {
	stbl := Box("stbl",
		Box("stsd", m.SampleDescription()),
		Box("stts", make([]byte, 8)),
	)
	minf := Box("minf", Box("smhd", make([]byte, 8)), stbl)
	mdia := Box("mdia",
		Box("mdhd", m.MediaHeader()),
		Box("hdlr", make([]byte, 24)),
		minf,
	)
	return Box("trak", Box("tkhd", make([]byte, 84)), mdia)
}

func (m M4A) textTrack() []byte {
	entry := Box("text", make([]byte, 8))
	stsd := append([]byte{0, 0, 0, 0, 0, 0, 0, 1}, entry...)
	minf := Box("minf", Box("stbl", Box("stsd", stsd)))
	mdia := Box("mdia", Box("mdhd", make([]byte, 24)), minf)
	return Box("trak", mdia)
}

// Bytes returns the encoded file.
func (m M4A) Bytes() []byte {
	ftyp := Box("ftyp", []byte("M4A "), make([]byte, 4), []byte("M4A mp42isom"))

	var traks []byte
	if m.LeadingTextTrack {
		traks = append(traks, m.textTrack()...)
	}
	traks = append(traks, m.track()...)
	moov := Box("moov", Box("mvhd", make([]byte, 100)), traks)

	mdat := Box("mdat", m.Payload)
	if m.LargeMdat {
		mdat = LargeBox("mdat", m.Payload)
	}
	free := Box("free", make([]byte, 16))

	out := append([]byte(nil), ftyp...)
	if m.MoovAfterMdat {
		out = append(out, free...)
		out = append(out, mdat...)
		return append(out, moov...)
	}
	out = append(out, moov...)
	out = append(out, free...)
	return append(out, mdat...)
}
