// Package disc talks to the physical burner: it reports tray and media state
// through the CDROM_DRIVE_STATUS ioctl, listens for media insertion on the
// udev netlink socket, and ejects the finished disc.
package disc
