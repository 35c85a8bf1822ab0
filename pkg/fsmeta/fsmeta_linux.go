//go:build linux

package fsmeta

import (
	"os"
	"os/user"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// New returns the platform service
func New() Service {
	return unixService{}
}

type unixService struct{}

func (s unixService) GetOwner(path string) (Owner, error) {
	info, err := s.Stat(path)
	if err != nil {
		return Owner{}, err
	}
	return info.Owner, nil
}

func (unixService) SetOwner(path, usr, grp string) error {
	uid, gid := -1, -1
	if usr != "" {
		u, err := user.Lookup(usr)
		if err != nil {
			return err
		}
		uid, err = strconv.Atoi(u.Uid)
		if err != nil {
			return err
		}
	}
	if grp != "" {
		g, err := user.LookupGroup(grp)
		if err != nil {
			return err
		}
		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return err
		}
	}
	if err := unix.Chown(path, uid, gid); err != nil {
		return &os.PathError{Op: "chown", Path: path, Err: err}
	}
	return nil
}

func (unixService) Stat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Info{}, &os.PathError{Op: "lstat", Path: path, Err: err}
	}
	info := Info{
		Size:  st.Size,
		Mtime: time.Unix(st.Mtim.Sec, st.Mtim.Nsec),
		Ctime: time.Unix(st.Ctim.Sec, st.Ctim.Nsec),
		Mode:  os.FileMode(st.Mode & 0777),
		Owner: Owner{
			User:  nameOf(user.LookupId, st.Uid),
			Group: groupOf(st.Gid),
		},
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		info.Type = TypeFile
	case unix.S_IFDIR:
		info.Type = TypeDir
	case unix.S_IFLNK:
		info.Type = TypeSymlink
	default:
		info.Type = TypeOther
	}
	return info, nil
}

// nameOf falls back to the numeric id when the id has no name on this host
func nameOf(lookup func(string) (*user.User, error), id uint32) string {
	numeric := strconv.FormatUint(uint64(id), 10)
	u, err := lookup(numeric)
	if err != nil {
		return numeric
	}
	return u.Username
}

func groupOf(id uint32) string {
	numeric := strconv.FormatUint(uint64(id), 10)
	g, err := user.LookupGroupId(numeric)
	if err != nil {
		return numeric
	}
	return g.Name
}
