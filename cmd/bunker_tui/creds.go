package main

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/studzonetools/bunker/internal/studzone"
)

func credsPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bunker_tui", "creds.gob"), nil
}

func SaveCreds(creds studzone.Credentials) error {
	path, err := credsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(creds)
}

func LoadCreds() (studzone.Credentials, error) {
	path, err := credsPath()
	if err != nil {
		return studzone.Credentials{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return studzone.Credentials{}, err
	}
	defer file.Close()

	var creds studzone.Credentials
	err = gob.NewDecoder(file).Decode(&creds)
	return creds, err
}

func deleteCreds() error {
	path, err := credsPath()
	if err != nil {
		return err
	}
	return os.Remove(path)
}
