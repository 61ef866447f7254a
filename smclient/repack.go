package smclient

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
)

// RepackModel rewrites a model artifact archive so that inference runs
// scriptName with the given contents. The source archive is downloaded from
// srcURI, the script is inserted under code/ (replacing any existing script
// with the same name while keeping its unrelated neighbors, e.g.
// requirements.txt), and the result is uploaded to dstURI.
func (c *Client) RepackModel(ctx context.Context, srcURI, dstURI, scriptName string, script []byte) error {
	if scriptName == "" {
		return fmt.Errorf("%w: inference script name is required", ErrInvalidConfig)
	}
	srcBucket, srcKey, err := ParseS3URI(srcURI)
	if err != nil {
		return err
	}
	dstBucket, dstKey, err := ParseS3URI(dstURI)
	if err != nil {
		return err
	}
	archive, err := c.Download(ctx, srcBucket, srcKey)
	if err != nil {
		return err
	}
	repacked, err := repackArchive(bytes.NewReader(archive), scriptName, script)
	if err != nil {
		return fmt.Errorf("repack %s: %w", srcURI, err)
	}
	return c.Upload(ctx, dstBucket, dstKey, repacked)
}

// repackArchive copies a tar.gz archive, dropping any existing
// code/<scriptName> entry and appending the new script in its place. All
// other entries pass through untouched.
func repackArchive(src io.Reader, scriptName string, script []byte) ([]byte, error) {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	var buf bytes.Buffer
	outGz := gzip.NewWriter(&buf)
	out := tar.NewWriter(outGz)

	scriptPath := path.Join("code", scriptName)
	in := tar.NewReader(gz)
	for {
		hdr, err := in.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if path.Clean(hdr.Name) == scriptPath {
			continue
		}
		if err := out.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("write tar header %s: %w", hdr.Name, err)
		}
		if _, err := io.Copy(out, in); err != nil {
			return nil, fmt.Errorf("copy tar entry %s: %w", hdr.Name, err)
		}
	}

	if err := out.WriteHeader(&tar.Header{
		Name: scriptPath,
		Mode: 0o644,
		Size: int64(len(script)),
	}); err != nil {
		return nil, fmt.Errorf("write script header: %w", err)
	}
	if _, err := out.Write(script); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	if err := outGz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	return buf.Bytes(), nil
}
