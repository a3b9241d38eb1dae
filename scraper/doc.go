// Package scraper reads kernel state through BPF iterators.
//
// A [Scraper] loads a compiled BPF object, attaches one iterator program
// by name and decodes what the kernel writes into each iteration session.
// Three scrapers are provided:
//
//   - [NewProgramScraper] attaches dump_bpf_prog and yields [BPFProgram]
//     records decoded from fixed-size binary records.
//   - [NewTaskScraper] attaches iter_tasks and yields one [Task] per open
//     file descriptor.
//   - [NewNetworkScraper] attaches dump_tcp4 and yields [Connection]
//     values parsed from /proc/net/tcp style lines.
//
// Scrapers are synchronous and not safe for concurrent use. Every range
// over [Scraper.Records] opens a fresh session, so a started scraper can
// be polled repeatedly.
package scraper
