package main

import (
	"github.com/pkgvault/pkgvault/index"
	_ "github.com/pkgvault/pkgvault/index/storage/driver/filesystem"
	_ "github.com/pkgvault/pkgvault/index/storage/driver/inmemory"
)

func main() {
	index.RootCmd.Execute()
}
