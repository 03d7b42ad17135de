package blobstore

import (
	"fmt"
	"os"
)

// Location is the storage directory chosen at startup.
type Location struct {
	Dir    string
	Shared bool
}

// ResolveLocation picks sharedDir when sharedMount exists as a directory,
// localDir otherwise. The chosen directory is not created here; NewFSStore
// does that.
func ResolveLocation(sharedMount, sharedDir, localDir string) (Location, error) {
	if sharedMount != "" && sharedDir != "" {
		info, err := os.Stat(sharedMount)
		switch {
		case err == nil && info.IsDir():
			return Location{Dir: sharedDir, Shared: true}, nil
		case err != nil && !os.IsNotExist(err):
			return Location{}, fmt.Errorf("probe shared mount %s: %w", sharedMount, err)
		}
	}
	if localDir == "" {
		return Location{}, fmt.Errorf("no local upload directory configured")
	}
	return Location{Dir: localDir}, nil
}
