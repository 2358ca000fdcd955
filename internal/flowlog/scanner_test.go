package flowlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsjashshah/flowtag/internal/logging"
	"github.com/itsjashshah/flowtag/internal/models"
)

const sampleLogs = `2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 443 49153 6 25 20000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-4d3c2b1a 192.168.1.100 203.0.113.101 23 49154 6 15 12000 1620140761 1620140821 REJECT OK

2 123456789012 eni-5e6f7g8h 192.168.1.101 198.51.100.3 25 49155 17 10 8000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-9h8g7f6e 172.16.0.100 203.0.113.102 110 49156 1 12 9000 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-1a2b3c4d 203.0.113.12 192.168.0.1 1024 80 99 1 40 1620140761 1620140821 ACCEPT OK
`

func scanAll(t *testing.T, s *Scanner) []models.FlowRecord {
	t.Helper()
	var out []models.FlowRecord
	for s.Scan() {
		out = append(out, s.Record())
	}
	return out
}

func newScanner(body string, opts Options) *Scanner {
	opts.Logger = logging.Discard()
	return NewScanner(strings.NewReader(body), opts)
}

func TestScanner(t *testing.T) {
	s := newScanner(sampleLogs, Options{})
	records := scanAll(t, s)
	require.NoError(t, s.Err())

	assert.Equal(t, []models.FlowRecord{
		{DstPort: 49153, Protocol: "tcp", Line: 1},
		{DstPort: 49154, Protocol: "tcp", Line: 2},
		{DstPort: 49155, Protocol: "udp", Line: 4},
		{DstPort: 49156, Protocol: "icmp", Line: 5},
		{DstPort: 80, Protocol: "99", Line: 6},
	}, records)

	stats := s.Stats()
	assert.Equal(t, 5, stats.Lines)
	assert.Equal(t, 5, stats.Accepted)
	assert.Zero(t, stats.Skipped)
}

func TestScannerSkipsMalformed(t *testing.T) {
	body := `version account-id interface-id srcaddr dstaddr srcport dstport protocol packets bytes start end action log-status
2 123456789012 eni-1 10.0.0.1 10.0.0.2 1 25 6 1 1 1 2 ACCEPT OK
2 123456789012 eni-1 10.0.0.1 10.0.0.2 1 25 6
2 123456789012 eni-1 - - - - - - - 1 2 - NODATA
2 123456789012 eni-1 10.0.0.1 10.0.0.2 1 70000 6 1 1 1 2 ACCEPT OK
2 123456789012 eni-1 10.0.0.1 10.0.0.2 1 http 6 1 1 1 2 ACCEPT OK
2 123456789012 eni-1 10.0.0.1 10.0.0.2 1 68 17 1 1 1 2 ACCEPT OK
`
	s := newScanner(body, Options{})
	records := scanAll(t, s)
	require.NoError(t, s.Err())

	require.Len(t, records, 2)
	assert.Equal(t, models.NewLookupKey(25, "tcp"), records[0].Key())
	assert.Equal(t, models.NewLookupKey(68, "udp"), records[1].Key())

	stats := s.Stats()
	assert.Equal(t, 6, stats.Lines, "header line is not counted")
	assert.Equal(t, 4, stats.Skipped)
	assert.Equal(t, uint64(1), stats.Anomalies[models.ReasonFieldCount])
	assert.Equal(t, uint64(3), stats.Anomalies[models.ReasonBadPort])
}

func TestScannerStrict(t *testing.T) {
	body := "2 1 eni-1 a b 1 25 6 1 1 1 2 ACCEPT OK\nbroken line\n2 1 eni-1 a b 1 26 6 1 1 1 2 ACCEPT OK\n"
	s := newScanner(body, Options{Strict: true})

	records := scanAll(t, s)
	assert.Len(t, records, 1)
	require.ErrorIs(t, s.Err(), models.ErrMalformedLine)

	var lineErr *models.LineError
	require.ErrorAs(t, s.Err(), &lineErr)
	assert.Equal(t, 2, lineErr.Line)
	assert.False(t, s.Scan(), "scanner does not restart after an error")
}

func TestScannerSkipsOversizedLine(t *testing.T) {
	good := "2 1 eni-1 a b 1 25 6 1 1 1 2 ACCEPT OK\n"
	body := good + strings.Repeat("x", 2*maxLineSize) + "\n" + good + good

	s := newScanner(body, Options{})
	records := scanAll(t, s)
	require.NoError(t, s.Err())
	require.Len(t, records, 3)
	assert.Equal(t, 4, records[2].Line)

	stats := s.Stats()
	assert.Equal(t, 4, stats.Lines)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, uint64(1), stats.Anomalies[models.ReasonLineTooLong])

	s = newScanner(body, Options{Strict: true})
	assert.Len(t, scanAll(t, s), 1)
	var lineErr *models.LineError
	require.ErrorAs(t, s.Err(), &lineErr)
	assert.Equal(t, 2, lineErr.Line)
	assert.Equal(t, models.ReasonLineTooLong, lineErr.Reason)
}

func TestScannerLastLineWithoutNewline(t *testing.T) {
	s := newScanner("2 1 eni-1 a b 1 25 6 1 1 1 2 ACCEPT OK\r\n2 1 eni-1 a b 1 53 17 1 1 1 2 ACCEPT OK", Options{})
	records := scanAll(t, s)
	require.NoError(t, s.Err())
	require.Len(t, records, 2)
	assert.Equal(t, models.NewLookupKey(53, "udp"), records[1].Key())
}

func TestScannerEmpty(t *testing.T) {
	s := newScanner("", Options{})
	assert.Empty(t, scanAll(t, s))
	assert.NoError(t, s.Err())
	assert.Zero(t, s.Stats().Lines)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestScannerReadError(t *testing.T) {
	s := NewScanner(failingReader{}, Options{Source: "flows.txt", Logger: logging.Discard()})

	assert.False(t, s.Scan())
	require.ErrorIs(t, s.Err(), models.ErrFileRead)
	assert.Contains(t, s.Err().Error(), "flows.txt")
	assert.Contains(t, s.Err().Error(), "disk on fire")
}

func TestScannerNext(t *testing.T) {
	s := newScanner(sampleLogs, Options{})
	n := 0
	for {
		_, ok := s.Next()
		if !ok {
			break
		}
		n++
	}
	assert.Equal(t, 5, n)
}

func TestProtocolTable(t *testing.T) {
	table := NewProtocolTable(map[string]string{"99": "Custom", "6": "TCP"})

	assert.Equal(t, "tcp", table.Name("6"))
	assert.Equal(t, "udp", table.Name("17"))
	assert.Equal(t, "icmp", table.Name("1"))
	assert.Equal(t, "custom", table.Name("99"))
	assert.Equal(t, "200", table.Name("200"))

	table = NewProtocolTable(map[string]string{"099": "Padded", "+47": "Signed", " 50 ": "IPsec"})
	assert.Equal(t, "padded", table.Name("99"))
	assert.Equal(t, "signed", table.Name("47"))
	assert.Equal(t, "ipsec", table.Name("50"))
}
