package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/wldfrag/catalog"
	"github.com/arloliu/wldfrag/compress"
	"github.com/arloliu/wldfrag/errs"
	"github.com/arloliu/wldfrag/fragment"
	"github.com/arloliu/wldfrag/internal/hash"
	"github.com/arloliu/wldfrag/schema"
)

// decodeReport is the YAML document printed by the decode command.
type decodeReport struct {
	Record    *fragment.Record `yaml:"record"`
	Consumed  int              `yaml:"consumed"`
	Remaining int              `yaml:"remaining"`
	Digest    string           `yaml:"digest"`
}

func (a *app) runDecode(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := a.log.Named("decode")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no payload file has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many payloads", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	id, err := parseTypeID(cmd.String("type"))
	if err != nil {
		return err
	}

	reg, err := a.registry(cmd.String("schemas"))
	if err != nil {
		return err
	}

	payload, err := a.readPayload(src, cmd.String("compression"))
	if err != nil {
		return err
	}
	off := cmd.Int("offset")
	switch {
	case off < 0:
		return fmt.Errorf("offset %d is negative", off)
	case off > len(payload):
		return fmt.Errorf("offset %d is past the end of the %d byte payload", off, len(payload))
	}
	payload = payload[off:]

	log.Debug("Decoding payload", zap.Stringer("type", id), zap.Int("size", len(payload)))

	frag, cur, err := reg.Decode(id, payload)
	if err != nil {
		var de *errs.DecodeError
		if errors.As(err, &de) {
			log.Error("Decoding failed",
				zap.String("fragment", de.Fragment),
				zap.String("field", de.Field),
				zap.Int("field_offset", de.FieldOffset),
				zap.Int("offset", de.Offset))
		}

		return err
	}

	rec, ok := frag.(*fragment.Record)
	if !ok {
		return fmt.Errorf("fragment %s decoded to unexpected %T", id, frag)
	}
	if rest := cur.Remaining(); rest > 0 {
		log.Info("Payload has trailing bytes", zap.Int("remaining", rest))
	}

	enc := yaml.NewEncoder(a.out)
	enc.SetIndent(2)
	err = enc.Encode(decodeReport{
		Record:    rec,
		Consumed:  cur.Offset(),
		Remaining: cur.Remaining(),
		Digest:    fmt.Sprintf("%016x", hash.Sum(payload[:cur.Offset()])),
	})
	if err != nil {
		return fmt.Errorf("unable to write record: %w", err)
	}

	return enc.Close()
}

// registry returns a registry with a generic decoder for every layout of the
// catalog file, or of the built-in catalog when path is empty.
func (a *app) registry(path string) (*fragment.Registry, error) {
	schemas, err := a.schemas(path)
	if err != nil {
		return nil, err
	}

	reg, err := fragment.NewRegistry(
		fragment.WithRegistryLogger(a.log),
		fragment.WithCompileOptions(fragment.WithLogger(a.log)),
	)
	if err != nil {
		return nil, err
	}
	for _, s := range schemas {
		if err := reg.RegisterSchema(s); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func (a *app) schemas(path string) ([]*schema.Schema, error) {
	if len(path) == 0 {
		return catalog.Schemas(), nil
	}

	schemas, err := schema.LoadYAMLFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load schemas: %w", err)
	}
	a.log.Debug("Schemas loaded", zap.String("file", path), zap.Int("count", len(schemas)))

	return schemas, nil
}

// readPayload reads and decompresses a payload file; "-" reads stdin.
func (a *app) readPayload(src, compression string) ([]byte, error) {
	codec, err := compress.ParseCodec(compression)
	if err != nil {
		return nil, err
	}

	var data []byte
	if src == "-" {
		data, err = io.ReadAll(a.in)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read payload: %w", err)
	}

	payload, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decompress payload: %w", err)
	}

	return payload, nil
}

func parseTypeID(s string) (schema.TypeID, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid fragment type %q: %w", s, err)
	}

	return schema.TypeID(n), nil
}
