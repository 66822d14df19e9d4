//go:build windows

package fsutil

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/windows"
)

// Directory junctions are implemented as NTFS reparse points. This mirrors
// the approach vendored transitively through the pack's container tooling
// (go.podman.io's Windows build paths use the same
// FSCTL_SET_REPARSE_POINT/FSCTL_GET_REPARSE_POINT dance via
// golang.org/x/sys/windows) rather than shelling out to mklink.

const (
	reparseTagMountPoint  = 0xA0000003
	fsctlSetReparsePoint  = 0x000900A4
	fsctlGetReparsePoint  = 0x000900A8
	maximumReparseDataLen = 16 * 1024
)

func platformCreateLink(linkPath, absTarget string) error {
	if err := os.MkdirAll(linkPath, 0o755); err != nil {
		return fmt.Errorf("creating junction directory %s: %w", linkPath, err)
	}

	h, err := openReparseHandle(linkPath)
	if err != nil {
		os.Remove(linkPath)
		return err
	}
	defer windows.CloseHandle(h)

	buf := buildMountPointReparseBuffer(absTarget)
	var bytesReturned uint32
	err = windows.DeviceIoControl(h, fsctlSetReparsePoint, &buf[0], uint32(len(buf)), nil, 0, &bytesReturned, nil)
	if err != nil {
		os.Remove(linkPath)
		return fmt.Errorf("setting reparse point on %s: %w", linkPath, err)
	}
	return nil
}

func openReparseHandle(path string) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	return windows.CreateFile(
		p,
		windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
}

// buildMountPointReparseBuffer constructs a REPARSE_DATA_BUFFER for an NTFS
// mount-point (junction) targeting absTarget.
func buildMountPointReparseBuffer(absTarget string) []byte {
	target := `\??\` + absTarget
	if !strings.HasSuffix(target, `\`) {
		target += `\`
	}
	targetUTF16 := windows.StringToUTF16(target)
	printUTF16 := windows.StringToUTF16(absTarget)

	substituteName := utf16BytesNoNul(targetUTF16)
	printName := utf16BytesNoNul(printUTF16)

	pathBufferLen := len(substituteName) + 2 + len(printName) + 2
	dataLen := 8 + 2 + pathBufferLen // header + reserved + path buffer

	buf := make([]byte, 8+dataLen)
	binary.LittleEndian.PutUint32(buf[0:4], reparseTagMountPoint)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(dataLen))
	// buf[6:8] reserved

	binary.LittleEndian.PutUint16(buf[8:10], 0)                        // SubstituteNameOffset
	binary.LittleEndian.PutUint16(buf[10:12], uint16(len(substituteName))) // SubstituteNameLength
	binary.LittleEndian.PutUint16(buf[12:14], uint16(len(substituteName)+2)) // PrintNameOffset
	binary.LittleEndian.PutUint16(buf[14:16], uint16(len(printName)))
	// buf[16:18] reserved

	offset := 18
	copy(buf[offset:], substituteName)
	offset += len(substituteName) + 2
	copy(buf[offset:], printName)

	return buf
}

func utf16BytesNoNul(u []uint16) []byte {
	if len(u) > 0 && u[len(u)-1] == 0 {
		u = u[:len(u)-1]
	}
	b := make([]byte, len(u)*2)
	for i, v := range u {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}

func platformResolveLink(linkPath string) (string, error) {
	info, err := os.Lstat(linkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(linkPath)
		return stripUNCPrefix(target), err
	}
	if !info.IsDir() {
		return "", nil
	}

	h, err := openReparseHandle(linkPath)
	if err != nil {
		return "", nil // not a reparse point we manage
	}
	defer windows.CloseHandle(h)

	buf := make([]byte, maximumReparseDataLen)
	var bytesReturned uint32
	if err := windows.DeviceIoControl(h, fsctlGetReparsePoint, nil, 0, &buf[0], uint32(len(buf)), &bytesReturned, nil); err != nil {
		return "", nil
	}
	if bytesReturned < 8 {
		return "", nil
	}
	tag := binary.LittleEndian.Uint32(buf[0:4])
	if tag != reparseTagMountPoint {
		return "", nil
	}
	substNameOffset := binary.LittleEndian.Uint16(buf[8:10])
	substNameLen := binary.LittleEndian.Uint16(buf[10:12])
	start := 16 + int(substNameOffset)
	raw := buf[start : start+int(substNameLen)]
	u16 := make([]uint16, len(raw)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	target := windows.UTF16ToString(u16)
	return stripUNCPrefix(target), nil
}

// stripUNCPrefix removes the \??\ / \\?\ prefix Windows junctions return.
func stripUNCPrefix(p string) string {
	p = strings.TrimPrefix(p, `\??\`)
	p = strings.TrimPrefix(p, `\\?\`)
	return strings.TrimSuffix(p, `\`)
}

func platformRemoveJunction(linkPath string) error {
	h, err := openReparseHandle(linkPath)
	if err == nil {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint32(buf[0:4], reparseTagMountPoint)
		var bytesReturned uint32
		windows.DeviceIoControl(h, 0x000900AC /* FSCTL_DELETE_REPARSE_POINT */, &buf[0], 8, nil, 0, &bytesReturned, nil)
		windows.CloseHandle(h)
	}
	return os.Remove(linkPath)
}

func isPlatformLink(path string, d os.DirEntry) bool {
	info, err := d.Info()
	if err != nil {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true
	}
	if !info.IsDir() {
		return false
	}
	target, err := platformResolveLink(path)
	return err == nil && target != ""
}
