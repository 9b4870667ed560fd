package nfs4

import (
	"fmt"
	"strconv"
	"strings"
)

// Version4 is the NFS program version carried in the RPC envelope.
const Version4 = 4

// NFSv4 Procedure Numbers
//
// NFSv4 exposes only two procedures; every real operation travels inside
// COMPOUND.
//
// Reference: RFC 7530 Section 16
const (
	// ProcNull - Do nothing (connectivity test)
	ProcNull = 0

	// ProcCompound - Execute a list of operations
	ProcCompound = 1
)

// Protocol limits.
const (
	// FHSize is the maximum size of an NFSv4 filehandle (NFS4_FHSIZE).
	FHSize = 128

	// VerifierSize is the size of a verifier4, including the READDIR cookie verifier.
	VerifierSize = 8

	// MaxNameLength is the longest component name this client will send.
	MaxNameLength = 255

	// MaxTagLength is the longest COMPOUND tag this client will send.
	MaxTagLength = 1024

	// MinorVersion0 is the only minor version whose operations this package encodes.
	MinorVersion0 = 0
)

// Opcode identifies an operation inside a COMPOUND.
type Opcode uint32

// NFSv4.0 Operation Numbers
//
// Reference: RFC 7530 Section 16.2 (nfs_opnum4)
const (
	OpAccess             Opcode = 3
	OpClose              Opcode = 4
	OpCommit             Opcode = 5
	OpCreate             Opcode = 6
	OpDelegPurge         Opcode = 7
	OpDelegReturn        Opcode = 8
	OpGetAttr            Opcode = 9
	OpGetFH              Opcode = 10
	OpLink               Opcode = 11
	OpLock               Opcode = 12
	OpLockT              Opcode = 13
	OpLockU              Opcode = 14
	OpLookup             Opcode = 15
	OpLookupP            Opcode = 16
	OpNVerify            Opcode = 17
	OpOpen               Opcode = 18
	OpOpenAttr           Opcode = 19
	OpOpenConfirm        Opcode = 20
	OpOpenDowngrade      Opcode = 21
	OpPutFH              Opcode = 22
	OpPutPubFH           Opcode = 23
	OpPutRootFH          Opcode = 24
	OpRead               Opcode = 25
	OpReadDir            Opcode = 26
	OpReadLink           Opcode = 27
	OpRemove             Opcode = 28
	OpRename             Opcode = 29
	OpRenew              Opcode = 30
	OpRestoreFH          Opcode = 31
	OpSaveFH             Opcode = 32
	OpSecInfo            Opcode = 33
	OpSetAttr            Opcode = 34
	OpSetClientID        Opcode = 35
	OpSetClientIDConfirm Opcode = 36
	OpVerify             Opcode = 37
	OpWrite              Opcode = 38
	OpReleaseLockOwner   Opcode = 39

	// OpIllegal is what a server echoes for an opcode it does not recognize.
	OpIllegal Opcode = 10044
)

var opcodeNames = map[Opcode]string{
	OpAccess:             "ACCESS",
	OpClose:              "CLOSE",
	OpCommit:             "COMMIT",
	OpCreate:             "CREATE",
	OpDelegPurge:         "DELEGPURGE",
	OpDelegReturn:        "DELEGRETURN",
	OpGetAttr:            "GETATTR",
	OpGetFH:              "GETFH",
	OpLink:               "LINK",
	OpLock:               "LOCK",
	OpLockT:              "LOCKT",
	OpLockU:              "LOCKU",
	OpLookup:             "LOOKUP",
	OpLookupP:            "LOOKUPP",
	OpNVerify:            "NVERIFY",
	OpOpen:               "OPEN",
	OpOpenAttr:           "OPENATTR",
	OpOpenConfirm:        "OPEN_CONFIRM",
	OpOpenDowngrade:      "OPEN_DOWNGRADE",
	OpPutFH:              "PUTFH",
	OpPutPubFH:           "PUTPUBFH",
	OpPutRootFH:          "PUTROOTFH",
	OpRead:               "READ",
	OpReadDir:            "READDIR",
	OpReadLink:           "READLINK",
	OpRemove:             "REMOVE",
	OpRename:             "RENAME",
	OpRenew:              "RENEW",
	OpRestoreFH:          "RESTOREFH",
	OpSaveFH:             "SAVEFH",
	OpSecInfo:            "SECINFO",
	OpSetAttr:            "SETATTR",
	OpSetClientID:        "SETCLIENTID",
	OpSetClientIDConfirm: "SETCLIENTID_CONFIRM",
	OpVerify:             "VERIFY",
	OpWrite:              "WRITE",
	OpReleaseLockOwner:   "RELEASE_LOCKOWNER",
	OpIllegal:            "ILLEGAL",
}

// String returns the protocol name of the opcode, e.g. "READDIR".
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", uint32(o))
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for o, name := range opcodeNames {
		m[name] = o
	}
	return m
}()

// ParseOpcode resolves an operation by name ("lookup", "OP_LOOKUP") or by
// number. Only operations a client may send are accepted.
func ParseOpcode(name string) (Opcode, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "OP_")

	o, ok := opcodesByName[key]
	if !ok {
		n, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("unknown operation %q", name)
		}
		o = Opcode(n)
	}
	if !o.Valid() {
		return 0, fmt.Errorf("operation %q is not an NFSv4.0 request operation", name)
	}
	return o, nil
}

// Valid reports whether o is an NFSv4.0 operation a client may send.
// OpIllegal is excluded: it only appears in replies.
func (o Opcode) Valid() bool {
	return o >= OpAccess && o <= OpReleaseLockOwner
}

// Status is an nfsstat4 value.
type Status uint32

// NFSv4 Status Codes
//
// Reference: RFC 7530 Section 13 (Error Values)
const (
	StatusOK                Status = 0
	StatusPerm              Status = 1
	StatusNoEnt             Status = 2
	StatusIO                Status = 5
	StatusNXIO              Status = 6
	StatusAccess            Status = 13
	StatusExist             Status = 17
	StatusXDev              Status = 18
	StatusNotDir            Status = 20
	StatusIsDir             Status = 21
	StatusInval             Status = 22
	StatusFBig              Status = 27
	StatusNoSpc             Status = 28
	StatusROFS              Status = 30
	StatusMLink             Status = 31
	StatusNameTooLong       Status = 63
	StatusNotEmpty          Status = 66
	StatusDQuot             Status = 69
	StatusStale             Status = 70
	StatusBadHandle         Status = 10001
	StatusBadCookie         Status = 10003
	StatusNotSupp           Status = 10004
	StatusTooSmall          Status = 10005
	StatusServerFault       Status = 10006
	StatusBadType           Status = 10007
	StatusDelay             Status = 10008
	StatusSame              Status = 10009
	StatusDenied            Status = 10010
	StatusExpired           Status = 10011
	StatusLocked            Status = 10012
	StatusGrace             Status = 10013
	StatusFHExpired         Status = 10014
	StatusShareDenied       Status = 10015
	StatusWrongSec          Status = 10016
	StatusClidInUse         Status = 10017
	StatusResource          Status = 10018
	StatusMoved             Status = 10019
	StatusNoFileHandle      Status = 10020
	StatusMinorVersMismatch Status = 10021
	StatusStaleClientID     Status = 10022
	StatusStaleStateID      Status = 10023
	StatusOldStateID        Status = 10024
	StatusBadStateID        Status = 10025
	StatusBadSeqID          Status = 10026
	StatusNotSame           Status = 10027
	StatusLockRange         Status = 10028
	StatusSymlink           Status = 10029
	StatusRestoreFH         Status = 10030
	StatusAttrNotSupp       Status = 10032
	StatusBadXDR            Status = 10036
	StatusOpenMode          Status = 10038
	StatusBadOwner          Status = 10039
	StatusBadChar           Status = 10040
	StatusBadName           Status = 10041
	StatusOpIllegal         Status = 10044
)

var statusNames = map[Status]string{
	StatusOK:                "NFS4_OK",
	StatusPerm:              "NFS4ERR_PERM",
	StatusNoEnt:             "NFS4ERR_NOENT",
	StatusIO:                "NFS4ERR_IO",
	StatusNXIO:              "NFS4ERR_NXIO",
	StatusAccess:            "NFS4ERR_ACCESS",
	StatusExist:             "NFS4ERR_EXIST",
	StatusXDev:              "NFS4ERR_XDEV",
	StatusNotDir:            "NFS4ERR_NOTDIR",
	StatusIsDir:             "NFS4ERR_ISDIR",
	StatusInval:             "NFS4ERR_INVAL",
	StatusFBig:              "NFS4ERR_FBIG",
	StatusNoSpc:             "NFS4ERR_NOSPC",
	StatusROFS:              "NFS4ERR_ROFS",
	StatusMLink:             "NFS4ERR_MLINK",
	StatusNameTooLong:       "NFS4ERR_NAMETOOLONG",
	StatusNotEmpty:          "NFS4ERR_NOTEMPTY",
	StatusDQuot:             "NFS4ERR_DQUOT",
	StatusStale:             "NFS4ERR_STALE",
	StatusBadHandle:         "NFS4ERR_BADHANDLE",
	StatusBadCookie:         "NFS4ERR_BAD_COOKIE",
	StatusNotSupp:           "NFS4ERR_NOTSUPP",
	StatusTooSmall:          "NFS4ERR_TOOSMALL",
	StatusServerFault:       "NFS4ERR_SERVERFAULT",
	StatusBadType:           "NFS4ERR_BADTYPE",
	StatusDelay:             "NFS4ERR_DELAY",
	StatusSame:              "NFS4ERR_SAME",
	StatusDenied:            "NFS4ERR_DENIED",
	StatusExpired:           "NFS4ERR_EXPIRED",
	StatusLocked:            "NFS4ERR_LOCKED",
	StatusGrace:             "NFS4ERR_GRACE",
	StatusFHExpired:         "NFS4ERR_FHEXPIRED",
	StatusShareDenied:       "NFS4ERR_SHARE_DENIED",
	StatusWrongSec:          "NFS4ERR_WRONGSEC",
	StatusClidInUse:         "NFS4ERR_CLID_INUSE",
	StatusResource:          "NFS4ERR_RESOURCE",
	StatusMoved:             "NFS4ERR_MOVED",
	StatusNoFileHandle:      "NFS4ERR_NOFILEHANDLE",
	StatusMinorVersMismatch: "NFS4ERR_MINOR_VERS_MISMATCH",
	StatusStaleClientID:     "NFS4ERR_STALE_CLIENTID",
	StatusStaleStateID:      "NFS4ERR_STALE_STATEID",
	StatusOldStateID:        "NFS4ERR_OLD_STATEID",
	StatusBadStateID:        "NFS4ERR_BAD_STATEID",
	StatusBadSeqID:          "NFS4ERR_BAD_SEQID",
	StatusNotSame:           "NFS4ERR_NOT_SAME",
	StatusLockRange:         "NFS4ERR_LOCK_RANGE",
	StatusSymlink:           "NFS4ERR_SYMLINK",
	StatusRestoreFH:         "NFS4ERR_RESTOREFH",
	StatusAttrNotSupp:       "NFS4ERR_ATTRNOTSUPP",
	StatusBadXDR:            "NFS4ERR_BADXDR",
	StatusOpenMode:          "NFS4ERR_OPENMODE",
	StatusBadOwner:          "NFS4ERR_BADOWNER",
	StatusBadChar:           "NFS4ERR_BADCHAR",
	StatusBadName:           "NFS4ERR_BADNAME",
	StatusOpIllegal:         "NFS4ERR_OP_ILLEGAL",
}

// String returns the canonical nfsstat4 name, or "UNKNOWN_<code>".
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_%d", uint32(s))
}
