package sas

import "strings"

// ContainerPermissions describes what a container SAS allows. String renders
// the flags in the canonical order the service expects.
type ContainerPermissions struct {
	Read   bool
	Add    bool
	Create bool
	Write  bool
	Delete bool
	List   bool
}

// String returns the permission flags in canonical order.
func (p ContainerPermissions) String() string {
	var sb strings.Builder
	if p.Read {
		sb.WriteByte('r')
	}
	if p.Add {
		sb.WriteByte('a')
	}
	if p.Create {
		sb.WriteByte('c')
	}
	if p.Write {
		sb.WriteByte('w')
	}
	if p.Delete {
		sb.WriteByte('d')
	}
	if p.List {
		sb.WriteByte('l')
	}
	return sb.String()
}

// BlobPermissions describes what a blob SAS allows.
type BlobPermissions struct {
	Read   bool
	Add    bool
	Create bool
	Write  bool
	Delete bool
}

// String returns the permission flags in canonical order.
func (p BlobPermissions) String() string {
	var sb strings.Builder
	if p.Read {
		sb.WriteByte('r')
	}
	if p.Add {
		sb.WriteByte('a')
	}
	if p.Create {
		sb.WriteByte('c')
	}
	if p.Write {
		sb.WriteByte('w')
	}
	if p.Delete {
		sb.WriteByte('d')
	}
	return sb.String()
}
