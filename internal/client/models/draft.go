package models

// Draft is the single in-progress post composition. It exists only on the
// client until it is published or discarded.
type Draft struct {
	Title    string
	Body     string
	ImageURL string
}

// IsZero reports whether the draft holds nothing worth persisting.
func (d Draft) IsZero() bool {
	return d.Title == "" && d.Body == "" && d.ImageURL == ""
}

// Image is a local image file selected for upload.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Wipe drops the image bytes.
func (i *Image) Wipe() {
	if i == nil {
		return
	}
	for n := range i.Data {
		i.Data[n] = 0
	}
	i.Data = nil
}
