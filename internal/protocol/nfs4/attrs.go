package nfs4

import (
	"fmt"
	"strings"
)

// Attr is an NFSv4 file attribute number, i.e. its bit position in a bitmap4.
type Attr uint32

// Recommended and mandatory attribute numbers.
//
// Reference: RFC 7530 Section 5.8; suppattr_exclcreat is from RFC 5661
const (
	AttrSupportedAttrs    Attr = 0
	AttrType              Attr = 1
	AttrFHExpireType      Attr = 2
	AttrChange            Attr = 3
	AttrSize              Attr = 4
	AttrLinkSupport       Attr = 5
	AttrSymlinkSupport    Attr = 6
	AttrNamedAttr         Attr = 7
	AttrFSID              Attr = 8
	AttrUniqueHandles     Attr = 9
	AttrLeaseTime         Attr = 10
	AttrRdattrError       Attr = 11
	AttrACL               Attr = 12
	AttrACLSupport        Attr = 13
	AttrFileHandle        Attr = 19
	AttrFileID            Attr = 20
	AttrMode              Attr = 33
	AttrNumLinks          Attr = 35
	AttrOwner             Attr = 36
	AttrOwnerGroup        Attr = 37
	AttrRawDev            Attr = 41
	AttrSpaceUsed         Attr = 45
	AttrTimeAccess        Attr = 47
	AttrTimeMetadata      Attr = 52
	AttrTimeModify        Attr = 53
	AttrMountedOnFileID   Attr = 55
	AttrSuppAttrExclCreat Attr = 75
)

var attrNames = map[Attr]string{
	AttrSupportedAttrs:    "supported_attrs",
	AttrType:              "type",
	AttrFHExpireType:      "fh_expire_type",
	AttrChange:            "change",
	AttrSize:              "size",
	AttrLinkSupport:       "link_support",
	AttrSymlinkSupport:    "symlink_support",
	AttrNamedAttr:         "named_attr",
	AttrFSID:              "fsid",
	AttrUniqueHandles:     "unique_handles",
	AttrLeaseTime:         "lease_time",
	AttrRdattrError:       "rdattr_error",
	AttrACL:               "acl",
	AttrACLSupport:        "aclsupport",
	AttrFileHandle:        "filehandle",
	AttrFileID:            "fileid",
	AttrMode:              "mode",
	AttrNumLinks:          "numlinks",
	AttrOwner:             "owner",
	AttrOwnerGroup:        "owner_group",
	AttrRawDev:            "rawdev",
	AttrSpaceUsed:         "space_used",
	AttrTimeAccess:        "time_access",
	AttrTimeMetadata:      "time_metadata",
	AttrTimeModify:        "time_modify",
	AttrMountedOnFileID:   "mounted_on_fileid",
	AttrSuppAttrExclCreat: "suppattr_exclcreat",
}

var attrsByName = func() map[string]Attr {
	m := make(map[string]Attr, len(attrNames))
	for a, name := range attrNames {
		m[name] = a
	}
	return m
}()

// DefaultReaddirAttrs is the attribute set requested by a plain READDIR:
// supported_attrs, type, size, named_attr and filehandle.
var DefaultReaddirAttrs = []Attr{
	AttrSupportedAttrs,
	AttrType,
	AttrSize,
	AttrNamedAttr,
	AttrFileHandle,
}

// String returns the attribute name, or its number if unknown.
func (a Attr) String() string {
	if name, ok := attrNames[a]; ok {
		return name
	}
	return fmt.Sprintf("%d", uint32(a))
}

// ParseAttr resolves an attribute by its protocol name (case-insensitive).
func ParseAttr(name string) (Attr, error) {
	a, ok := attrsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown attribute %q", name)
	}
	return a, nil
}

// ParseAttrs resolves a list of attribute names.
func ParseAttrs(names []string) ([]Attr, error) {
	attrs := make([]Attr, 0, len(names))
	for _, name := range names {
		a, err := ParseAttr(name)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}
