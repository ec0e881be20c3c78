package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/swiftcourier/trackingserver/internal/services"
	"github.com/swiftcourier/trackingserver/internal/validation"
	"github.com/swiftcourier/trackingserver/types"
)

const (
	maxMultipartMemory = 8 << 20

	formFieldStatus          = "status"
	formFieldSenderName      = "sender[name]"
	formFieldSenderAddress   = "sender[address]"
	formFieldReceiverName    = "receiver[name]"
	formFieldReceiverAddress = "receiver[address]"
	formFieldLocationAddress = "currentLocationAddress"
	formFieldLocationLat     = "currentLocationLat"
	formFieldLocationLng     = "currentLocationLng"
	formFieldPackageType     = "packageType"
	formFieldPackageWeight   = "packageWeight"
	formFieldPackageHeight   = "packageHeight"
	formFieldPackageColor    = "packageColor"
	formFieldAdminNotes      = "adminNotes"
	formFieldPhoto           = "photo"
)

var errUnsupportedEncoding = errors.New("unsupported content type")

// packageForm is a decoded package create or update request.
type packageForm struct {
	values url.Values
	body   []byte
	photo  *multipart.FileHeader
}

func isFormEncoding(mt string) bool {
	return mt == "multipart/form-data" || mt == "application/x-www-form-urlencoded"
}

func parseForm(r *http.Request) error {
	if mediaType(r) == "multipart/form-data" {
		return r.ParseMultipartForm(maxMultipartMemory)
	}
	return r.ParseForm()
}

func readPackageForm(r *http.Request) (packageForm, error) {
	mt := mediaType(r)
	switch {
	case isFormEncoding(mt):
		if err := parseForm(r); err != nil {
			return packageForm{}, err
		}
		form := packageForm{values: r.PostForm}
		if r.MultipartForm != nil {
			if files := r.MultipartForm.File[formFieldPhoto]; len(files) > 0 {
				form.photo = files[0]
			}
		}
		return form, nil
	case mt == "application/json" || mt == "":
		var raw json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return packageForm{}, err
		}
		return packageForm{body: raw}, nil
	default:
		return packageForm{}, errUnsupportedEncoding
	}
}

// openPhoto returns the uploaded photo, if any. The caller closes the file.
func (f packageForm) openPhoto() (*services.Photo, multipart.File, error) {
	if f.photo == nil {
		return nil, nil, nil
	}
	file, err := f.photo.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.Photo{Filename: f.photo.Filename, Content: file}, file, nil
}

// newPackage builds and validates a create request.
func (f packageForm) newPackage() (types.NewPackage, validation.Result) {
	if f.body != nil {
		return newPackageFromJSON(f.body)
	}

	var result validation.Result
	input := types.NewPackage{
		Status:   types.PackageStatus(f.values.Get(formFieldStatus)),
		Sender:   types.Party{Name: f.values.Get(formFieldSenderName), Address: f.values.Get(formFieldSenderAddress)},
		Receiver: types.Party{Name: f.values.Get(formFieldReceiverName), Address: f.values.Get(formFieldReceiverAddress)},
		CurrentLocation: types.Location{
			Address: f.values.Get(formFieldLocationAddress),
			Lat:     parseCoordinate(f.values.Get(formFieldLocationLat), "currentLocation.lat", &result),
			Lng:     parseCoordinate(f.values.Get(formFieldLocationLng), "currentLocation.lng", &result),
		},
		PackageDetails: detailsFromForm(f.values),
		AdminNotes:     f.values.Get(formFieldAdminNotes),
	}
	if input.Status == "" {
		input.Status = types.StatusOnHold
	}
	result.Merge(validation.Validate(input))
	return input, result
}

func newPackageFromJSON(body []byte) (types.NewPackage, validation.Result) {
	var in packageInput
	var result validation.Result
	if err := json.Unmarshal(body, &in); err != nil {
		result.Add("", "malformed body")
		return types.NewPackage{}, result
	}
	if in.Status == "" {
		in.Status = types.StatusOnHold
	}
	result = validation.Validate(in)
	return in.newPackage(), result
}

// patch builds and validates an update request. Only groups present in the
// request are set.
func (f packageForm) patch() (types.PackagePatch, validation.Result) {
	if f.body != nil {
		return patchFromJSON(f.body)
	}

	var patch types.PackagePatch
	var result validation.Result
	v := f.values
	if v.Has(formFieldStatus) {
		status := types.PackageStatus(v.Get(formFieldStatus))
		patch.Status = &status
	}
	if v.Has(formFieldSenderName) || v.Has(formFieldSenderAddress) {
		patch.Sender = &types.Party{Name: v.Get(formFieldSenderName), Address: v.Get(formFieldSenderAddress)}
	}
	if v.Has(formFieldReceiverName) || v.Has(formFieldReceiverAddress) {
		patch.Receiver = &types.Party{Name: v.Get(formFieldReceiverName), Address: v.Get(formFieldReceiverAddress)}
	}
	if v.Get(formFieldLocationAddress) != "" {
		patch.CurrentLocation = &types.Location{
			Address: v.Get(formFieldLocationAddress),
			Lat:     parseCoordinate(v.Get(formFieldLocationLat), "currentLocation.lat", &result),
			Lng:     parseCoordinate(v.Get(formFieldLocationLng), "currentLocation.lng", &result),
		}
	}
	if v.Get(formFieldPackageType) != "" {
		details := detailsFromForm(v)
		patch.PackageDetails = &details
	}
	if v.Has(formFieldAdminNotes) {
		notes := v.Get(formFieldAdminNotes)
		patch.AdminNotes = &notes
	}

	result.Merge(validation.Validate(patch))
	return patch, result
}

func patchFromJSON(body []byte) (types.PackagePatch, validation.Result) {
	var in packagePatchInput
	var result validation.Result
	if err := json.Unmarshal(body, &in); err != nil {
		result.Add("", "malformed body")
		return types.PackagePatch{}, result
	}
	result = validation.Validate(in)
	return in.patch(), result
}

// locationInput is a JSON location. Coordinates are pointers so a missing
// lat or lng is rejected instead of reading as zero.
type locationInput struct {
	Address string   `json:"address" validate:"required"`
	Lat     *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng     *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func (l locationInput) location() types.Location {
	loc := types.Location{Address: l.Address}
	if l.Lat != nil {
		loc.Lat = *l.Lat
	}
	if l.Lng != nil {
		loc.Lng = *l.Lng
	}
	return loc
}

// packageInput is the JSON body of a create request.
type packageInput struct {
	Status          types.PackageStatus  `json:"status" validate:"package_status"`
	Sender          types.Party          `json:"sender"`
	Receiver        types.Party          `json:"receiver"`
	CurrentLocation locationInput        `json:"currentLocation"`
	PackageDetails  types.PackageDetails `json:"packageDetails"`
	AdminNotes      string               `json:"adminNotes"`
}

func (in packageInput) newPackage() types.NewPackage {
	return types.NewPackage{
		Status:          in.Status,
		Sender:          in.Sender,
		Receiver:        in.Receiver,
		CurrentLocation: in.CurrentLocation.location(),
		PackageDetails:  in.PackageDetails,
		AdminNotes:      in.AdminNotes,
	}
}

// packagePatchInput is the JSON body of an update request. It has no photo
// field; photos only arrive as multipart parts.
type packagePatchInput struct {
	Status          *types.PackageStatus  `json:"status" validate:"omitempty,package_status"`
	Sender          *types.Party          `json:"sender"`
	Receiver        *types.Party          `json:"receiver"`
	CurrentLocation *locationInput        `json:"currentLocation"`
	PackageDetails  *types.PackageDetails `json:"packageDetails"`
	AdminNotes      *string               `json:"adminNotes"`
}

func (in packagePatchInput) patch() types.PackagePatch {
	patch := types.PackagePatch{
		Status:         in.Status,
		Sender:         in.Sender,
		Receiver:       in.Receiver,
		PackageDetails: in.PackageDetails,
		AdminNotes:     in.AdminNotes,
	}
	if in.CurrentLocation != nil {
		loc := in.CurrentLocation.location()
		patch.CurrentLocation = &loc
	}
	return patch
}

func detailsFromForm(v url.Values) types.PackageDetails {
	return types.PackageDetails{
		Type:   v.Get(formFieldPackageType),
		Weight: v.Get(formFieldPackageWeight),
		Height: v.Get(formFieldPackageHeight),
		Color:  v.Get(formFieldPackageColor),
	}
}

func parseCoordinate(raw, field string, result *validation.Result) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		result.Add(field, "number")
		return 0
	}
	return value
}

func readContact(r *http.Request) (types.NewContact, error) {
	var input types.NewContact
	if isFormEncoding(mediaType(r)) {
		if err := parseForm(r); err != nil {
			return input, err
		}
		input = types.NewContact{
			FirstName:       r.PostForm.Get("firstName"),
			LastName:        r.PostForm.Get("lastName"),
			Email:           r.PostForm.Get("email"),
			Phone:           r.PostForm.Get("phone"),
			ServiceInterest: r.PostForm.Get("serviceInterest"),
			Message:         r.PostForm.Get("message"),
		}
		return input, nil
	}
	err := json.NewDecoder(r.Body).Decode(&input)
	return input, err
}
