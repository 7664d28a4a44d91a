package wire

// Reserved sentinel values. NOFID is never allocated as a live fid;
// NOTAG is used only for the Tversion/Rversion exchange, before any
// other tag can be pending.
const (
	NOFID uint32 = 0xFFFFFFFF
	NOTAG uint16 = 0xFFFF
)

// Version is the protocol version string this package speaks. A server
// that receives anything else prefixed with "9P2000" still negotiates
// down to this string; a client asking for an unrelated dialect gets
// "unknown" back.
const Version = "9P2000.L"

// DefaultMaxSize is the ceiling offered during version negotiation when
// the caller hasn't requested a smaller one. 1 MiB matches common
// Linux 9p client defaults.
const DefaultMaxSize = 1 << 20

// MinMsize is the smallest frame size a session's decoder accepts after
// negotiation, even when the negotiated msize is lower; below this,
// even a Tversion message itself may not fit.
const MinMsize = 256

// Message type bytes, named with a tag prefix so they don't collide
// with the Go struct names (Tversion, Rversion, ...) that carry each
// message's fields. 9P2000.L keeps the original 9P2000 T/Rversion
// through T/Rwstat range and adds the Linux-specific messages in the
// gaps of the original numbering, per the diod protocol notes.
const (
	tagTlerror = 6
	tagRlerror = 7

	tagTstatfs = 8
	tagRstatfs = 9

	tagTlopen = 12
	tagRlopen = 13

	tagTlcreate = 14
	tagRlcreate = 15

	tagTsymlink = 16
	tagRsymlink = 17

	tagTmknod = 18
	tagRmknod = 19

	tagTrename = 20
	tagRrename = 21

	tagTreadlink = 22
	tagRreadlink = 23

	tagTgetattr = 24
	tagRgetattr = 25

	tagTsetattr = 26
	tagRsetattr = 27

	tagTxattrwalk   = 30
	tagRxattrwalk   = 31
	tagTxattrcreate = 32
	tagRxattrcreate = 33

	tagTreaddir = 40
	tagRreaddir = 41

	tagTfsync = 50
	tagRfsync = 51

	tagTlock    = 52
	tagRlock    = 53
	tagTgetlock = 54
	tagRgetlock = 55

	tagTlink = 70
	tagRlink = 71

	tagTmkdir = 72
	tagRmkdir = 73

	tagTrenameat = 74
	tagRrenameat = 75

	tagTunlinkat = 76
	tagRunlinkat = 77

	tagTversion = 100
	tagRversion = 101
	tagTauth    = 102
	tagRauth    = 103
	tagTattach  = 104
	tagRattach  = 105

	tagTflush = 108
	tagRflush = 109

	tagTwalk = 110
	tagRwalk = 111

	tagTread  = 116
	tagRread  = 117
	tagTwrite = 118
	tagRwrite = 119

	tagTclunk  = 120
	tagRclunk  = 121
	tagTremove = 122
	tagRremove = 123
)

// GetattrMask bits, requested by Tgetattr and echoed in Rgetattr.Valid.
// A server is free to always populate every field; this implementation
// populates GetattrBasic and echoes the requested mask back unchanged.
const (
	GetattrMode GetattrMask = 1 << iota
	GetattrNlink
	GetattrUID
	GetattrGID
	GetattrRdev
	GetattrAtime
	GetattrMtime
	GetattrCtime
	GetattrIno
	GetattrSize
	GetattrBlocks

	GetattrBasic = GetattrMode | GetattrNlink | GetattrUID | GetattrGID |
		GetattrRdev | GetattrAtime | GetattrMtime | GetattrCtime |
		GetattrIno | GetattrSize | GetattrBlocks
	GetattrAll = GetattrBasic
)

// GetattrMask is the advisory attribute-subset bitset used by Tgetattr.
type GetattrMask uint64

// SetattrMask bits, used by Tsetattr.Valid to indicate which fields of
// the accompanying SetAttr are meaningful.
const (
	SetattrMode SetattrMask = 1 << iota
	SetattrUID
	SetattrGID
	SetattrSize
	SetattrAtime
	SetattrMtime
	SetattrCtime
	SetattrAtimeSet
	SetattrMtimeSet
)

// SetattrMask is the bitset carried in Tsetattr.Valid.
type SetattrMask uint32

// OpenFlag bits as passed to Tlopen/Tlcreate, mirroring Linux open(2).
// This server interprets the access-mode bits and the create, excl,
// trunc and append bits listed here; any other bit is accepted and
// ignored.
const (
	OpenRdonly OpenFlag = 0
	OpenWronly OpenFlag = 1
	OpenRdwr   OpenFlag = 2
	OpenAccmode OpenFlag = 3

	OpenCreate    OpenFlag = 0o100
	OpenExcl      OpenFlag = 0o200
	OpenTrunc     OpenFlag = 0o1000
	OpenAppend    OpenFlag = 0o2000
)

// OpenFlag is the Linux open(2) flags bitset carried by Tlopen/Tlcreate.
type OpenFlag uint32

// Accmode returns the access-mode component of the flag (rdonly/wronly/rdwr).
func (f OpenFlag) Accmode() OpenFlag { return f & OpenAccmode }
