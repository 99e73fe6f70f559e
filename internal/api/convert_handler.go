package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode/utf8"

	"codefusion/pkg/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInvalidFile    = "Invalid file format. Use .c, .cpp, .java, .js, .py, or .txt"
	msgMissingFields  = "Missing source language, target language, or code"
	msgInvalidCode    = "Invalid syntax or unsupported code"
	msgConversionFail = "Conversion failed"
	msgInternal       = "Internal server error"
	msgBodyTooLarge   = "Request body too large"
)

// bodyTooLarge reports whether err came from the LimitBody cap.
func bodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func allowedFile(name string) bool {
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// uploadedCode returns the contents of the "file" part, or ok=false when no
// file was submitted. A part with an empty filename counts as no file.
func uploadedCode(c *gin.Context) (code string, ok bool, err error) {
	header, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading upload: %w: %w", types.ErrInvalidInput, err)
	}
	if header.Filename == "" {
		return "", false, nil
	}
	if !allowedFile(header.Filename) {
		return "", true, fmt.Errorf("file %q: %w", header.Filename, types.ErrInvalidInput)
	}

	data, err := readPart(header)
	if err != nil {
		return "", true, fmt.Errorf("reading upload: %w: %w", types.ErrInvalidInput, err)
	}
	if !utf8.Valid(data) {
		return "", true, fmt.Errorf("file %q is not UTF-8 text: %w", header.Filename, types.ErrInvalidInput)
	}
	return string(data), true, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ConvertCode handles form or multipart conversion requests
func (s *GinServer) ConvertCode(c *gin.Context) {
	var req types.ConvertRequest
	if err := c.ShouldBind(&req); err != nil {
		s.logger.Warn("invalid convert request", zap.Error(err))
		if bodyTooLarge(err) {
			errorJSON(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		errorJSON(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	fileCode, hasFile, err := uploadedCode(c)
	if err != nil {
		s.logger.Warn("rejected upload", zap.Error(err))
		if bodyTooLarge(err) {
			errorJSON(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		errorJSON(c, http.StatusBadRequest, msgInvalidFile)
		return
	}
	if hasFile {
		req.Code = fileCode
	}

	if req.Code == "" || req.SourceLanguage == "" || req.TargetLanguage == "" {
		errorJSON(c, http.StatusBadRequest, msgMissingFields)
		return
	}

	if err := s.services.Validator.Validate(req.Code, req.SourceLanguage); err != nil {
		s.logger.Info("code failed validation", zap.Error(err))
		errorJSON(c, http.StatusBadRequest, msgInvalidCode)
		return
	}

	converted, err := s.services.CodeConverterService.Convert(c.Request.Context(), req.Code, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		if errors.Is(err, types.ErrConversionFailed) {
			errorJSON(c, http.StatusInternalServerError, msgConversionFail)
			return
		}
		s.logger.Error("conversion error", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, msgInternal)
		return
	}

	c.JSON(http.StatusOK, types.ConvertResponse{ConvertedCode: converted})
}
