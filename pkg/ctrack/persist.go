package ctrack

import (
	"bufio"
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"github.com/pkg/errors"
)

var (
	ErrBadMagic         = errors.New("not a ctrack event file")
	ErrBadVersion       = errors.New("unsupported ctrack event file version")
	ErrTruncated        = errors.New("ctrack event file is truncated")
	ErrChecksumMismatch = errors.New("ctrack event file checksum does not match")
)

const (
	fileMagic         = "CTRACK01"
	fileVersion uint32 = 1
)

// SaveEventsToFile drains every currently recorded event (consuming them,
// just like ResultGetTables) and writes them to path in the persisted event
// format, so results can be computed later, possibly in another process.
func SaveEventsToFile(path string) error {
	p := current()
	buffers, _, start, end := p.drain()
	sites := p.sites.snapshot()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating event file %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeEventFile(w, sites, buffers, start, end); err != nil {
		return errors.Wrapf(err, "writing event file %q", path)
	}
	return errors.Wrap(w.Flush(), "flushing event file")
}

// ResultSave computes result tables and writes them, rendered, to path.
func ResultSave(path string, settings ...ResultSettings) error {
	text, err := ResultAsString(settings...)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, []byte(text), 0o644), "writing result file")
}

// ResultPrintFromFile loads a previously saved event file and prints the
// computed result tables to stdout.
func ResultPrintFromFile(path string, settings ...ResultSettings) error {
	tables, err := LoadAndReport(path, settings...)
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stdout, formatTables(tables))
	return err
}

// LoadAndReport reads a persisted event file and computes result tables
// from it, re-interning its sites into the current process's site registry
// by (file, line, name) rather than by the file's own numeric ids, which
// are only meaningful within that file.
func LoadAndReport(path string, settings ...ResultSettings) (ResultTables, error) {
	f, err := os.Open(path)
	if err != nil {
		return ResultTables{}, errors.Wrapf(err, "opening event file %q", path)
	}
	defer f.Close()

	sites := current().sites
	buffers, start, end, err := readEventFile(bufio.NewReader(f), sites)
	if err != nil {
		return ResultTables{}, errors.Wrapf(err, "reading event file %q", path)
	}

	return computeTables(buffers, sites, resolveSettings(settings), start, end, false)
}

func writeEventFile(w io.Writer, sites []Site, buffers []drainedBuffer, start, end int64) error {
	cw := newCRCWriter(w)

	if _, err := cw.WriteString(fileMagic); err != nil {
		return err
	}
	if err := writeUint32(cw, fileVersion); err != nil {
		return err
	}
	if err := writeUint32(cw, 0); err != nil { // reserved
		return err
	}

	if err := writeUint32(cw, uint32(len(sites))); err != nil {
		return err
	}
	for _, s := range sites {
		if err := writeSite(cw, s); err != nil {
			return err
		}
	}

	if err := writeUint32(cw, uint32(len(buffers))); err != nil {
		return err
	}
	for _, b := range buffers {
		if err := writeUint64(cw, uint64(b.goroutine)); err != nil {
			return err
		}
		if err := writeUint64(cw, uint64(len(b.events))); err != nil {
			return err
		}
		for _, e := range b.events {
			if err := writeEvent(cw, e); err != nil {
				return err
			}
		}
	}

	if err := writeInt64(cw, start); err != nil {
		return err
	}
	if err := writeInt64(cw, end); err != nil {
		return err
	}

	_, err := w.Write(uint32Bytes(cw.sum.Sum32()))
	return err
}

func readEventFile(r io.Reader, sites *siteRegistry) ([]drainedBuffer, int64, int64, error) {
	cr := newCRCReader(r)

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(cr, magic); err != nil {
		return nil, 0, 0, ErrTruncated
	}
	if string(magic) != fileMagic {
		return nil, 0, 0, ErrBadMagic
	}

	version, err := readUint32(cr)
	if err != nil {
		return nil, 0, 0, ErrTruncated
	}
	if version != fileVersion {
		return nil, 0, 0, ErrBadVersion
	}
	if _, err := readUint32(cr); err != nil { // reserved
		return nil, 0, 0, ErrTruncated
	}

	siteCount, err := readUint32(cr)
	if err != nil {
		return nil, 0, 0, ErrTruncated
	}
	localToGlobal := make(map[uint32]int, siteCount)
	for i := uint32(0); i < siteCount; i++ {
		localID, site, err := readSite(cr)
		if err != nil {
			return nil, 0, 0, ErrTruncated
		}
		localToGlobal[localID] = sites.internExternal(site.File, site.Line, site.Name)
	}

	bufferCount, err := readUint32(cr)
	if err != nil {
		return nil, 0, 0, ErrTruncated
	}
	buffers := make([]drainedBuffer, 0, bufferCount)
	for i := uint32(0); i < bufferCount; i++ {
		gid, err := readUint64(cr)
		if err != nil {
			return nil, 0, 0, ErrTruncated
		}
		count, err := readUint64(cr)
		if err != nil {
			return nil, 0, 0, ErrTruncated
		}
		events := make([]RawEvent, count)
		for j := range events {
			e, localID, err := readEvent(cr)
			if err != nil {
				return nil, 0, 0, ErrTruncated
			}
			e.SiteID = localToGlobal[localID]
			events[j] = e
		}
		buffers = append(buffers, drainedBuffer{goroutine: goroutineID(gid), events: events})
	}

	start, err := readInt64(cr)
	if err != nil {
		return nil, 0, 0, ErrTruncated
	}
	end, err := readInt64(cr)
	if err != nil {
		return nil, 0, 0, ErrTruncated
	}

	wantSum := cr.sum.Sum32()
	gotSum, err := readUint32(r)
	if err != nil {
		return nil, 0, 0, ErrTruncated
	}
	if gotSum != wantSum {
		return nil, 0, 0, ErrChecksumMismatch
	}

	return buffers, start, end, nil
}

func writeSite(w io.Writer, s Site) error {
	if err := writeUint32(w, uint32(s.ID)); err != nil {
		return err
	}
	if err := writeString16(w, s.File); err != nil {
		return err
	}
	if err := writeString16(w, s.Name); err != nil {
		return err
	}
	return writeUint32(w, uint32(s.Line))
}

func readSite(r io.Reader) (uint32, Site, error) {
	id, err := readUint32(r)
	if err != nil {
		return 0, Site{}, err
	}
	file, err := readString16(r)
	if err != nil {
		return 0, Site{}, err
	}
	name, err := readString16(r)
	if err != nil {
		return 0, Site{}, err
	}
	line, err := readUint32(r)
	if err != nil {
		return 0, Site{}, err
	}
	return id, Site{File: file, Name: name, Line: int(line)}, nil
}

func writeEvent(w io.Writer, e RawEvent) error {
	if err := writeUint32(w, uint32(e.SiteID)); err != nil {
		return err
	}
	if err := writeInt64(w, e.Enter); err != nil {
		return err
	}
	return writeInt64(w, e.Exit)
}

func readEvent(r io.Reader) (RawEvent, uint32, error) {
	siteID, err := readUint32(r)
	if err != nil {
		return RawEvent{}, 0, err
	}
	enter, err := readInt64(r)
	if err != nil {
		return RawEvent{}, 0, err
	}
	exit, err := readInt64(r)
	if err != nil {
		return RawEvent{}, 0, err
	}
	return RawEvent{Enter: enter, Exit: exit}, siteID, nil
}

func writeString16(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString16(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeUint32(w io.Writer, v uint32) error { return binary.Write(w, binary.LittleEndian, v) }
func writeUint64(w io.Writer, v uint64) error { return binary.Write(w, binary.LittleEndian, v) }
func writeInt64(w io.Writer, v int64) error   { return binary.Write(w, binary.LittleEndian, v) }

func readUint32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readUint64(r io.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readInt64(r io.Reader) (int64, error) {
	var v int64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func uint32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// crcWriter and crcReader feed every byte written/read through a running
// CRC32 (the stdlib IEEE table) so the footer checksum covers the whole
// payload without a second pass over it.
type crcWriter struct {
	w   io.Writer
	sum hash.Hash32
}

func newCRCWriter(w io.Writer) *crcWriter {
	return &crcWriter{w: w, sum: crc32.NewIEEE()}
}

func (c *crcWriter) Write(p []byte) (int, error) {
	c.sum.Write(p)
	return c.w.Write(p)
}

func (c *crcWriter) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

type crcReader struct {
	r   io.Reader
	sum hash.Hash32
}

func newCRCReader(r io.Reader) *crcReader {
	return &crcReader{r: r, sum: crc32.NewIEEE()}
}

func (c *crcReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sum.Write(p[:n])
	}
	return n, err
}
