// Command pagestore is a small demo wiring the buffer pool manager and the
// copy-on-write trie together, pinning one page through the buffer pool.
package main

import (
	"fmt"
	"os"

	"pagestore/buffer"
	"pagestore/disk"
	"pagestore/trie"
	"pagestore/wal"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	const dbFile = "pagestore.db"
	os.Remove(dbFile)

	dm, err := disk.NewFileManager(dbFile, disk.CompressionSnappy)
	if err != nil {
		log.WithError(err).Fatal("failed to open database file")
	}
	defer dm.Close()

	bpm := buffer.NewBufferPoolManager(8, dm, 2, &wal.DiagnosticLogManager{})

	id, page, err := bpm.NewPage()
	if err != nil {
		log.WithError(err).Fatal("failed to allocate first page")
	}
	if page == nil {
		log.Fatal("pool exhausted on first allocation")
	}
	copy(page.Data[:], "hello, page cache")
	bpm.UnpinPage(id, true)
	bpm.FlushPage(id)
	fmt.Printf("wrote page %d\n", id)

	catalog := trie.New()
	catalog = catalog.Put("pages/root", id)
	rootID, ok := trie.Get[disk.PageID](catalog, "pages/root")
	if ok {
		fmt.Printf("catalog: pages/root -> page %d\n", rootID)
	}
}
