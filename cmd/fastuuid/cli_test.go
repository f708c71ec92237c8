package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/goleak"

	"github.com/Lzww0608/fastuuid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runCLI(args ...string) ([]string, error) {
	var out bytes.Buffer
	log := logrus.New()
	log.SetOutput(io.Discard)

	err := run(context.Background(), args, &out, log)
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if out.Len() == 0 {
		lines = nil
	}
	return lines, err
}

func TestGen_defaults(t *testing.T) {
	g := NewGomegaWithT(t)

	lines, err := runCLI("gen")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(lines).To(HaveLen(1))

	id, err := fastuuid.Parse(lines[0])
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(id.Version()).To(Equal(fastuuid.VersionRandom))
	g.Expect(lines[0]).To(HaveLen(36))
}

func TestGen_versionsAndFormats(t *testing.T) {
	g := NewGomegaWithT(t)

	cases := []struct {
		args    []string
		version fastuuid.Version
		length  int
		count   int
	}{
		{[]string{"gen", "--version", "4", "-n", "5", "--format", "hex"}, fastuuid.VersionRandom, 32, 5},
		{[]string{"gen", "--version", "7", "-n", "5", "--format", "urn"}, fastuuid.VersionTimeSorted, 45, 5},
		{[]string{"gen", "--version", "7", "-n", "3000", "--workers", "4"}, fastuuid.VersionTimeSorted, 36, 3000},
		{[]string{"gen", "--version", "4", "-n", "3000", "--workers", "0"}, fastuuid.VersionRandom, 36, 3000},
		{[]string{"gen", "--version", "1mc", "-n", "5"}, fastuuid.VersionTimeBased, 36, 5},
		{[]string{"gen", "--version", "1", "-n", "5", "--node-source", "random"}, fastuuid.VersionTimeBased, 36, 5},
	}

	for _, tc := range cases {
		lines, err := runCLI(tc.args...)
		g.Expect(err).ToNot(HaveOccurred(), strings.Join(tc.args, " "))

		g.Expect(lines).To(HaveLen(tc.count))

		seen := map[string]bool{}
		for _, line := range lines {
			g.Expect(line).To(HaveLen(tc.length))
			id, err := fastuuid.Parse(line)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(id.Version()).To(Equal(tc.version))
			seen[line] = true
		}
		g.Expect(seen).To(HaveLen(tc.count))
	}
}

func TestGen_nameBased(t *testing.T) {
	g := NewGomegaWithT(t)

	lines, err := runCLI("gen", "--version", "5", "--name", "python.org")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(lines).To(Equal([]string{"886313e1-3b8a-5372-9b90-0c9aee199e5d"}))

	lines, err = runCLI("gen", "--version", "3", "--namespace", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "--name", "python.org")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(lines).To(Equal([]string{"6fa459ea-ee8a-3ca4-894e-db77e160355e"}))

	_, err = runCLI("gen", "--version", "5")
	g.Expect(err).To(MatchError(ContainSubstring("--name is required")))

	_, err = runCLI("gen", "--version", "5", "--name", "x", "--namespace", "bogus")
	g.Expect(errors.Is(err, fastuuid.ErrMalformedInput)).To(BeTrue())
}

func TestGen_timeBasedWithNode(t *testing.T) {
	g := NewGomegaWithT(t)

	lines, err := runCLI("gen", "--version", "1", "-n", "2", "--node", "00:1b:63:84:45:e6", "--clock-seq", "42")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(lines).To(HaveLen(2))

	for _, line := range lines {
		id := fastuuid.MustParse(line)
		g.Expect(id.Node()).To(Equal(uint64(0x001b638445e6)))
		g.Expect(id.ClockSeq()).To(Equal(uint16(42)))
	}

	_, err = runCLI("gen", "--version", "1", "--node", "xyz")
	g.Expect(err).To(MatchError(ContainSubstring("want 12 hex digits")))
}

func TestGen_sqlNodeSource(t *testing.T) {
	g := NewGomegaWithT(t)
	dsn := "file:" + filepath.Join(t.TempDir(), "nodes.db") + "?_busy_timeout=5000"

	first, err := runCLI("gen", "--version", "1", "-n", "3", "--node-source", "sql",
		"--sql-driver", "sqlite3", "--sql-dsn", dsn, "--sql-pool", "cli")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(first).To(HaveLen(3))

	second, err := runCLI("gen", "--version", "1", "--node-source", "sql",
		"--sql-driver", "sqlite3", "--sql-dsn", dsn, "--sql-pool", "cli")
	g.Expect(err).ToNot(HaveOccurred())

	// one node per process, never reused by the next one
	a := fastuuid.MustParse(first[0])
	for _, line := range first {
		g.Expect(fastuuid.MustParse(line).Node()).To(Equal(a.Node()))
	}
	b := fastuuid.MustParse(second[0])
	g.Expect(a.Node()).To(Equal(uint64(1<<40 | 1)))
	g.Expect(b.Node()).ToNot(Equal(a.Node()))
	g.Expect(b.Node() &^ (1 << 40)).To(BeNumerically(">", 1))

	_, err = runCLI("gen", "--version", "1", "--node-source", "sql")
	g.Expect(err).To(MatchError(ContainSubstring("--sql-dsn is required")))
}

func TestGen_envars(t *testing.T) {
	g := NewGomegaWithT(t)

	t.Setenv("FASTUUID_VERSION", "7")
	t.Setenv("FASTUUID_COUNT", "4")
	t.Setenv("FASTUUID_FORMAT", "hex")

	lines, err := runCLI("gen")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(lines).To(HaveLen(4))
	for _, line := range lines {
		g.Expect(line).To(HaveLen(32))
		g.Expect(fastuuid.MustParse(line).Version()).To(Equal(fastuuid.VersionTimeSorted))
	}

	// flags win over the environment
	lines, err = runCLI("gen", "-n", "1", "--version", "4")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(lines).To(HaveLen(1))
	g.Expect(fastuuid.MustParse(lines[0]).Version()).To(Equal(fastuuid.VersionRandom))
}

func TestGen_badFlags(t *testing.T) {
	g := NewGomegaWithT(t)

	_, err := runCLI("gen", "--version", "6")
	g.Expect(err).To(HaveOccurred())

	_, err = runCLI("gen", "--count=-1")
	g.Expect(err).To(MatchError(ContainSubstring("must not be negative")))

	_, err = runCLI("gen", "--version", "1", "--node", "00:1b:63:84:45:e6", "--clock-seq", "70000")
	g.Expect(err).To(MatchError(ContainSubstring("--clock-seq must be at most 16383, got 70000")))

	_, err = runCLI("gen", "--version", "1", "--node", "00:1b:63:84:45:e6", "--clock-seq", "16384")
	g.Expect(err).To(HaveOccurred())

	lines, err := runCLI("gen", "--version", "1", "--node", "00:1b:63:84:45:e6", "--clock-seq", "16383")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(fastuuid.MustParse(lines[0]).ClockSeq()).To(Equal(uint16(16383)))

	lines, err = runCLI("gen", "-n", "0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(lines).To(BeEmpty())
}

func TestInspect(t *testing.T) {
	g := NewGomegaWithT(t)

	lines, err := runCLI("inspect", "urn:uuid:12345678-1234-5678-1234-567812345678")
	g.Expect(err).ToNot(HaveOccurred())

	out := strings.Join(lines, "\n")
	g.Expect(out).To(ContainSubstring("uuid:"))
	g.Expect(out).To(MatchRegexp(`int:\s+24197857161011715162171839636988778104`))
	g.Expect(out).To(MatchRegexp(`bytes_le:\s+78563412341278561234567812345678`))
	g.Expect(out).To(MatchRegexp(`version:\s+5`))
	g.Expect(out).To(MatchRegexp(`variant:\s+reserved for NCS compatibility`))
	g.Expect(out).To(MatchRegexp(`node:\s+0x567812345678`))
	g.Expect(out).To(MatchRegexp(`time:\s+` + "466142576285865592"))
	g.Expect(out).ToNot(ContainSubstring("timestamp:"))

	_, err = runCLI("inspect", "not-a-uuid")
	g.Expect(errors.Is(err, fastuuid.ErrMalformedInput)).To(BeTrue())
}

func TestInspect_timeBased(t *testing.T) {
	g := NewGomegaWithT(t)

	lines, err := runCLI("inspect", "c232ab00-9414-11ec-b3c8-9f6bdeced846", "017f22e2-79b0-7cc3-98c4-dc0c0c07398f")
	g.Expect(err).ToNot(HaveOccurred())

	out := strings.Join(lines, "\n")
	// RFC 9562 appendix A example values
	g.Expect(strings.Count(out, "2022-02-22T19:22:22Z")).To(Equal(2))
	g.Expect(out).To(MatchRegexp(`variant:\s+specified in RFC 4122`))
	g.Expect(strings.Count(out, "timestamp:")).To(Equal(2))
}

func TestConvert(t *testing.T) {
	g := NewGomegaWithT(t)

	cases := []struct {
		args []string
		want []string
	}{
		{
			[]string{"convert", "--from", "int", "24197857161011715162171839636988778104"},
			[]string{"12345678-1234-5678-1234-567812345678"},
		},
		{
			[]string{"convert", "--to", "bytes-le", "12345678-1234-5678-1234-567812345678"},
			[]string{"78563412341278561234567812345678"},
		},
		{
			[]string{"convert", "--from", "bytes-le", "78563412341278561234567812345678"},
			[]string{"12345678-1234-5678-1234-567812345678"},
		},
		{
			[]string{"convert", "--to", "fields", "12345678-1234-5678-1234-567812345678"},
			[]string{"0x12345678,0x1234,0x5678,0x12,0x34,0x567812345678"},
		},
		{
			[]string{"convert", "--from", "fields", "--to", "int", "0x12345678,0x1234,0x5678,0x12,0x34,0x567812345678"},
			[]string{"24197857161011715162171839636988778104"},
		},
		{
			[]string{"convert", "--from", "bytes", "--set-version", "4", "12345678123456781234567812345678"},
			[]string{"12345678-1234-4678-1234-567812345678"},
		},
		{
			// only bytes input takes the override
			[]string{"convert", "--set-version", "4", "12345678123456781234567812345678"},
			[]string{"12345678-1234-5678-1234-567812345678"},
		},
		{
			[]string{"convert", "--to", "urn", "{12345678-1234-5678-1234-567812345678}", "00000000-0000-0000-0000-000000000000"},
			[]string{"urn:uuid:12345678-1234-5678-1234-567812345678", "urn:uuid:00000000-0000-0000-0000-000000000000"},
		},
	}

	for _, tc := range cases {
		lines, err := runCLI(tc.args...)
		g.Expect(err).ToNot(HaveOccurred(), strings.Join(tc.args, " "))
		g.Expect(lines).To(Equal(tc.want), strings.Join(tc.args, " "))
	}

	b64, err := runCLI("convert", "--to", "base64", "12345678-1234-5678-1234-567812345678")
	g.Expect(err).ToNot(HaveOccurred())
	back, err := runCLI("convert", "--from", "base64", b64[0])
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(back).To(Equal([]string{"12345678-1234-5678-1234-567812345678"}))
}

func TestConvert_errors(t *testing.T) {
	g := NewGomegaWithT(t)

	_, err := runCLI("convert", "--from", "fields", "1,2,3")
	g.Expect(errors.Is(err, fastuuid.ErrMalformedInput)).To(BeTrue())

	_, err = runCLI("convert", "--from", "fields", "0,0,0,0,0,281474976710656")
	g.Expect(errors.Is(err, fastuuid.ErrFieldOutOfRange)).To(BeTrue())
	g.Expect(err).To(MatchError(ContainSubstring("field 6 out of range (need a 48-bit value)")))

	_, err = runCLI("convert", "--from", "bytes", "1234")
	g.Expect(errors.Is(err, fastuuid.ErrMalformedInput)).To(BeTrue())

	_, err = runCLI("convert", "--from", "int", "0xzz")
	g.Expect(errors.Is(err, fastuuid.ErrMalformedInput)).To(BeTrue())

	_, err = runCLI("convert", "--set-version", "6", "12345678123456781234567812345678")
	g.Expect(errors.Is(err, fastuuid.ErrInvalidVersion)).To(BeTrue())

	// rejected up front, whatever the input encoding
	for _, from := range []string{"hex", "base64", "bytes"} {
		_, err = runCLI("convert", "--from", from, "--set-version", "9", "EjRWeBI0VngSNFZ4EjRWeA")
		g.Expect(errors.Is(err, fastuuid.ErrInvalidVersion)).To(BeTrue(), from)
	}
}
