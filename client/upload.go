package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/meetflow/chat-relay/internal/domain"
	"go.uber.org/zap"
)

// Uploader pushes a file to storage and returns its descriptor.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, data io.Reader) (*domain.FileInfo, error)
}

// Notifier surfaces upload outcomes to the user.
type Notifier func(title, detail string)

type messageSender interface {
	SendMessage(roomID string, msg *domain.Message) error
}

// UploadBridge turns upload completions into file messages. A failed
// upload only notifies; no message is sent. A successful upload builds a
// file message, records it optimistically and relays it.
type UploadBridge struct {
	sender   messageSender
	uploader Uploader
	identity domain.Identity
	history  *History
	notify   Notifier
	logger   *zap.SugaredLogger
}

func NewUploadBridge(
	session *Session,
	uploader Uploader,
	identity domain.Identity,
	history *History,
	notify Notifier,
	logger *zap.SugaredLogger,
) *UploadBridge {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &UploadBridge{
		sender:   session,
		uploader: uploader,
		identity: identity,
		history:  history,
		notify:   notify,
		logger:   logger,
	}
}

// SendFile uploads the file and relays the resulting message to the room.
func (b *UploadBridge) SendFile(ctx context.Context, roomID, name, contentType string, data io.Reader) (*domain.Message, error) {
	info, err := b.uploader.Upload(ctx, name, contentType, data)
	if err != nil {
		b.logger.Warnw("file upload failed", "file_name", name, "error", err)
		b.notifyf("Upload failed", "Your file could not be uploaded.")
		return nil, err
	}

	msg, err := domain.NewFileMessage(b.identity, info)
	if err != nil {
		return nil, err
	}

	if b.history != nil {
		b.history.AddLocal(msg)
	}

	if err := b.sender.SendMessage(roomID, msg); err != nil {
		b.logger.Warnw("failed to relay file message", "room_id", roomID, "error", err)
		b.notifyf("Send failed", "Your file was uploaded but could not be sent.")
		return nil, err
	}

	b.notifyf("Upload complete", "Your file has been sent.")
	return msg, nil
}

func (b *UploadBridge) notifyf(title, detail string) {
	if b.notify != nil {
		b.notify(title, detail)
	}
}

// HTTPUploader posts files to the relay's upload endpoint as multipart
// form data.
type HTTPUploader struct {
	BaseURL    string
	Identity   domain.Identity
	HTTPClient *http.Client
}

func (u *HTTPUploader) Upload(ctx context.Context, name, contentType string, data io.Reader) (*domain.FileInfo, error) {
	body, formType, err := buildMultipart(name, contentType, data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.BaseURL+"/api/uploads", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", formType)
	req.Header.Set("X-User-Id", u.Identity.UserID)
	req.Header.Set("X-User-Name", u.Identity.UserName)

	httpc := u.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("upload rejected: status %d", resp.StatusCode)
	}

	var info domain.FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &info, nil
}

func buildMultipart(name, contentType string, data io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return &buf, writer.FormDataContentType(), nil
}
