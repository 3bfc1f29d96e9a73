package blob

import (
	"context"
	"path"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/dayyanintl/surgishop/config"
)

// SftpUploader copies objects to a directory on an SFTP server that is
// exposed over HTTP at PublicBaseURL. A connection is opened per upload.
type SftpUploader struct {
	addr    string
	dir     string
	baseURL string
	ssh     *ssh.ClientConfig
}

func NewSftpUploader(cfg config.StorageConfig) (*SftpUploader, error) {
	if cfg.SftpAddr == "" || cfg.SftpUser == "" {
		return nil, errors.New("sftp storage requires sftp_addr and sftp_user")
	}
	hostKey := ssh.InsecureIgnoreHostKey()
	if cfg.SftpHostKey != "" {
		pk, _, _, _, err := ssh.ParseAuthorizedKey([]byte(cfg.SftpHostKey))
		if err != nil {
			return nil, errors.Wrap(err, "parse sftp_host_key")
		}
		hostKey = ssh.FixedHostKey(pk)
	} else {
		zap.L().Warn("sftp host key not configured, server identity is not verified", zap.String("namespace", "blob"))
	}
	return &SftpUploader{
		addr:    cfg.SftpAddr,
		dir:     cfg.SftpDir,
		baseURL: cfg.PublicBaseURL,
		ssh: &ssh.ClientConfig{
			User:            cfg.SftpUser,
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.SftpPasswd)},
			HostKeyCallback: hostKey,
		},
	}, nil
}

func (u *SftpUploader) Upload(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	conn, err := ssh.Dial("tcp", u.addr, u.ssh)
	if err != nil {
		return "", errors.Wrap(err, "sftp dial")
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return "", errors.Wrap(err, "sftp session")
	}
	defer client.Close()

	if err := client.MkdirAll(u.dir); err != nil {
		return "", errors.Wrap(err, "sftp mkdir")
	}
	f, err := client.Create(path.Join(u.dir, name))
	if err != nil {
		return "", errors.Wrap(err, "sftp create")
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", errors.Wrap(err, "sftp write")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "sftp close")
	}
	return joinURL(u.baseURL, name), nil
}
