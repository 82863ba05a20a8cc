package olsdk

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type uploadResponse struct {
	Success bool `json:"success"`
}

// Upload creates or replaces a file in the given project folder. Overleaf's
// upload endpoint is fine-uploader shaped: metadata in query params, the
// content as a multipart `qqfile` part.
func (c *Client) Upload(ctx context.Context, projectID, folderID, name string, body []byte) error {
	var result uploadResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetRetryCount(0).
		SetQueryParams(map[string]string{
			"folder_id":       folderID,
			"_csrf":           c.session.CSRF,
			"qquuid":          uuid.NewString(),
			"qqfilename":      name,
			"qqtotalfilesize": strconv.Itoa(len(body)),
		}).
		SetFileBytes("qqfile", name, body).
		SetSuccessResult(&result).
		Post(fmt.Sprintf(uploadPath, projectID))
	if err := handleAPIError(resp, err, "upload "+name); err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("upload %s: %w", name, ErrUploadRejected)
	}
	return nil
}

type createFolderRequest struct {
	ParentFolderID string `json:"parent_folder_id"`
	CSRF           string `json:"_csrf"`
	Name           string `json:"name"`
}

type createFolderResponse struct {
	ID string `json:"_id"`
}

// CreateFolder creates a folder under parentID and returns its id. An
// already existing folder is not an error; the empty id tells the caller to
// look it up in the project tree instead.
func (c *Client) CreateFolder(ctx context.Context, projectID, parentID, name string) (string, error) {
	var result createFolderResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBodyJsonMarshal(&createFolderRequest{
			ParentFolderID: parentID,
			CSRF:           c.session.CSRF,
			Name:           name,
		}).
		SetSuccessResult(&result).
		Post(fmt.Sprintf(folderPath, projectID))
	if err != nil {
		return "", fmt.Errorf("http request error: create folder %s: %w", name, err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusConflict {
		// Folder already exists.
		return "", nil
	}
	if err := handleAPIError(resp, nil, "create folder "+name); err != nil {
		return "", err
	}

	return result.ID, nil
}

// EnsureFolder walks dir ("a/b/c") below the project root, creating missing
// folders, and returns the id of the deepest one. Matching is
// case-insensitive, as the server treats folder names that way.
func (c *Client) EnsureFolder(ctx context.Context, projectID string, info *ProjectInfo, dir string) (string, error) {
	folderID := info.RootFolderID()
	if dir == "" || dir == "." {
		return folderID, nil
	}

	current := info.RootFolder[0].Folders
	for _, segment := range strings.Split(dir, "/") {
		var match *Folder
		for _, f := range current {
			if strings.EqualFold(f.Name, segment) {
				match = f
				break
			}
		}

		if match != nil {
			folderID = match.ID
			current = match.Folders
			continue
		}

		id, err := c.CreateFolder(ctx, projectID, folderID, segment)
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", fmt.Errorf("create folder %s: folder exists but is not in the project tree", segment)
		}
		folderID = id
		current = nil
	}

	return folderID, nil
}
