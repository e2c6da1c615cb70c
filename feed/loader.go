package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dice-app/dice/clients"
	"github.com/dice-app/dice/utils"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const driveDownloadPrefix = "https://drive.google.com/uc?id="

var remotePathRegex = regexp.MustCompile(`^https?://\S+`)

// Dataset is a raw delimited table. Rows map column name to the raw cell value,
// cells missing in ragged rows are empty strings.
type Dataset struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumn returns true iff the dataset has a column with the given name.
func (d *Dataset) HasColumn(name string) bool {
	return utils.ContainsString(d.Columns, name)
}

// UnrecognizedSourceError is returned for remote paths that are neither a
// github nor a google drive url.
type UnrecognizedSourceError struct {
	Path string
}

func (e *UnrecognizedSourceError) Error() string {
	return fmt.Sprintf("unrecognized url format: %s", e.Path)
}

// ResolveSource maps a configured data path to the location that is actually
// read. remote is false for local files.
func ResolveSource(path string) (location string, remote bool, err error) {
	if !remotePathRegex.MatchString(path) {
		return path, false, nil
	}
	switch {
	case strings.Contains(path, "github"):
		return path, true, nil
	case strings.Contains(path, "drive.google.com"):
		if strings.Contains(path, "/uc?") {
			return path, true, nil
		}
		// Share links look like https://drive.google.com/file/d/<id>/view
		segments := strings.Split(path, "/")
		if len(segments) < 2 {
			return "", true, &UnrecognizedSourceError{Path: path}
		}
		return driveDownloadPrefix + segments[len(segments)-2], true, nil
	default:
		return "", true, &UnrecognizedSourceError{Path: path}
	}
}

type Loader struct {
	client *clients.HttpClient
}

func NewLoader(client *clients.HttpClient) *Loader {
	return &Loader{client: client}
}

func NewDefaultLoader() *Loader {
	return NewLoader(clients.NewDefaultHttpClient())
}

// Load reads the dataset at path without filtering any row. Failures are
// returned as is, the caller is expected to abort the session bootstrap.
func (l *Loader) Load(ctx context.Context, path string, delim string) (*Dataset, error) {
	location, remote, err := ResolveSource(path)
	if err != nil {
		return nil, err
	}

	var r io.ReadCloser
	if remote {
		res, err := l.client.Get(ctx, location)
		if err != nil {
			return nil, errors.Wrap(err, "fail to fetch feed")
		}
		r = res.Body
	} else {
		f, err := os.Open(location)
		if err != nil {
			return nil, errors.Wrap(err, "fail to open feed")
		}
		r = f
	}
	defer r.Close()

	ds, err := ReadDelimited(r, delim)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to parse feed %s", location)
	}
	Logger.Log.WithFields(logrus.Fields{
		"location": location,
		"rows":     len(ds.Rows),
		"columns":  len(ds.Columns),
	}).Info("feed loaded")
	return ds, nil
}

// ReadDelimited parses a delimited table whose first record is the header.
func ReadDelimited(r io.Reader, delim string) (*Dataset, error) {
	comma, err := delimiterRune(delim)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty feed")
	}
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	ds := &Dataset{Columns: columns}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(record) {
				row[c] = record[i]
			} else {
				row[c] = ""
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func delimiterRune(delim string) (rune, error) {
	switch delim {
	case "":
		return ',', nil
	case `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(delim) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", delim)
	}
	r, _ := utf8.DecodeRuneInString(delim)
	return r, nil
}
