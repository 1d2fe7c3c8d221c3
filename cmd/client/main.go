package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// Minimal chunked-upload client: init, send the file in fixed-size chunks,
// complete, print the access URL. Useful for exercising a running server.

var (
	serverURL = flag.String("server", "http://localhost:3000", "server base URL")
	filePath  = flag.String("file", "", "file to upload")
	ownerID   = flag.String("owner", "demo-user", "owner id")
	chunkSize = flag.Int64("chunk-size", 5*1024*1024, "chunk size in bytes")
)

func main() {
	flag.Parse()
	if *filePath == "" {
		log.Fatal("usage: client -file <path> [-server URL] [-owner ID]")
	}

	sessionID, err := initUpload(*ownerID, filepath.Base(*filePath))
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}
	log.Printf("session %s opened", sessionID)

	total, err := sendChunks(sessionID, *filePath)
	if err != nil {
		log.Fatalf("chunk upload failed: %v", err)
	}
	log.Printf("%d chunks sent", total)

	accessURL, err := completeUpload(sessionID, filepath.Base(*filePath))
	if err != nil {
		log.Fatalf("complete failed: %v", err)
	}
	fmt.Printf("uploaded: %s%s\n", *serverURL, accessURL)
}

func initUpload(owner, filename string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"owner_id": owner,
		"filename": filename,
	})
	resp, err := http.Post(*serverURL+"/api/v1/upload/init", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", readError(resp)
	}

	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.SessionID, nil
}

func sendChunks(sessionID, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, *chunkSize)
	index := 0
	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			if err := sendChunk(sessionID, index, buf[:n]); err != nil {
				return index, err
			}
			index++
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return index, nil
		}
		if err != nil {
			return index, err
		}
	}
}

func sendChunk(sessionID string, index int, data []byte) error {
	req, err := http.NewRequest(http.MethodPost, *serverURL+"/api/v1/upload/chunk", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Upload-Session", sessionID)
	req.Header.Set("X-Chunk-Index", strconv.Itoa(index))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	return nil
}

func completeUpload(sessionID, filename string) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"session_id": sessionID,
		"filename":   filename,
	})
	resp, err := http.Post(*serverURL+"/api/v1/upload/complete", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", readError(resp)
	}

	var out struct {
		AccessURL string `json:"access_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.AccessURL, nil
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
}
