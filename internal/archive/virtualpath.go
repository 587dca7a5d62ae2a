package archive

import (
	"encoding/json"
	"strings"

	"github.com/standardbeagle/greaper/internal/types"
)

// VirtualPath locates content on disk or nested inside one or more archives.
// A plain file has no members. Member segments are only reachable through
// copies, so a value cannot change once built.
type VirtualPath struct {
	Archive string
	members []string
}

// NewVirtualPath builds a locator, copying members so the caller cannot alias them
func NewVirtualPath(archive string, members ...string) VirtualPath {
	vp := VirtualPath{Archive: archive}
	if len(members) > 0 {
		vp.members = append([]string(nil), members...)
	}
	return vp
}

// ParseVirtualPath splits "archive::member::member" into its segments
func ParseVirtualPath(s string) VirtualPath {
	parts := strings.Split(s, types.VirtualPathSeparator)
	return NewVirtualPath(parts[0], parts[1:]...)
}

// String renders the locator with "::" between segments
func (vp VirtualPath) String() string {
	if len(vp.members) == 0 {
		return vp.Archive
	}
	return vp.Archive + types.VirtualPathSeparator + strings.Join(vp.members, types.VirtualPathSeparator)
}

// IsNested reports whether the locator points inside an archive
func (vp VirtualPath) IsNested() bool {
	return len(vp.members) > 0
}

// Child returns a new locator one member deeper
func (vp VirtualPath) Child(member string) VirtualPath {
	members := make([]string, 0, len(vp.members)+1)
	members = append(members, vp.members...)
	members = append(members, member)
	return VirtualPath{Archive: vp.Archive, members: members}
}

// Name is the innermost segment, used for extension based decisions
func (vp VirtualPath) Name() string {
	if len(vp.members) == 0 {
		return vp.Archive
	}
	return vp.members[len(vp.members)-1]
}

// Members returns a copy of the member segments, outermost first
func (vp VirtualPath) Members() []string {
	return append([]string(nil), vp.members...)
}

// MemberPath joins the member segments with "::", empty for a plain file
func (vp VirtualPath) MemberPath() string {
	return strings.Join(vp.members, types.VirtualPathSeparator)
}

// Depth is the number of archive layers above the content
func (vp VirtualPath) Depth() int {
	return len(vp.members)
}

// Parent drops the innermost member. A plain file is its own parent.
func (vp VirtualPath) Parent() VirtualPath {
	if len(vp.members) == 0 {
		return vp
	}
	return NewVirtualPath(vp.Archive, vp.members[:len(vp.members)-1]...)
}

// Equal compares two locators segment by segment
func (vp VirtualPath) Equal(other VirtualPath) bool {
	if vp.Archive != other.Archive || len(vp.members) != len(other.members) {
		return false
	}
	for i := range vp.members {
		if vp.members[i] != other.members[i] {
			return false
		}
	}
	return true
}

func (vp VirtualPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(vp.String())
}

func (vp *VirtualPath) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*vp = ParseVirtualPath(s)
	return nil
}
