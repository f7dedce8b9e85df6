package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"watchplan/internal/feed"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "activity feed TCP address")
	table := flag.String("table", "", "only show entries for this table")
	op := flag.String("op", "", "only show INSERT, UPDATE or DELETE entries")
	raw := flag.Bool("raw", false, "print raw JSON lines instead of formatted output")
	flag.Parse()

	filterOp := strings.ToUpper(strings.TrimSpace(*op))

	for {
		if err := run(*addr, *table, filterOp, *raw); err != nil {
			log.Printf("[feed-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr, table, op string, raw bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[feed-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		var ev feed.Event
		if err := json.Unmarshal(line, &ev); err != nil || ev.Type != "activity" {
			// welcome lines and anything unrecognized pass through as-is
			if table == "" && op == "" {
				fmt.Println(string(line))
			}
			continue
		}

		if table != "" && ev.TableName != table {
			continue
		}
		if op != "" && ev.Operation != op {
			continue
		}

		if raw {
			fmt.Println(string(line))
			continue
		}
		fmt.Println(ev.Summary())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}
