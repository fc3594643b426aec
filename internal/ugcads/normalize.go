package ugcads

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"dreamcut-backend/internal/models"
)

const (
	DefaultBrandName         = "DreamCut Brand"
	DefaultMode              = "single"
	DefaultAspectRatio       = "9:16"
	DefaultDuration          = 30
	DefaultLanguage          = "en"
	DefaultCharacterPresence = "voiceover"

	ModeSingle = "single"
	ModeDual   = "dual"
	ModeMulti  = "multi"

	maxImageSlots = 3
)

// NormalizedRequest is the typed, defaulted form. Field names in json tags
// double as the field names reported in validation details.
type NormalizedRequest struct {
	ProjectTitle         string `json:"project_title" validate:"required,min=1,max=255"`
	BrandName            string `json:"brand_name" validate:"required,min=1,max=255"`
	BrandPrompt          string `json:"brand_prompt" validate:"required,min=1,max=5000"`
	ProductName          string `json:"product_name,omitempty" validate:"max=255"`
	Mode                 string `json:"mode" validate:"required,oneof=single dual multi"`
	AspectRatio          string `json:"aspect_ratio" validate:"required,oneof=9:16 16:9 1:1"`
	Duration             int    `json:"duration" validate:"gte=5,lte=120"`
	EmotionalTone        *int   `json:"emotional_tone,omitempty" validate:"omitempty,gte=0,lte=100"`
	DialogueScript       string `json:"dialogue_script,omitempty" validate:"max=5000"`
	DialogueVoiceType    string `json:"dialogue_voice_type,omitempty" validate:"max=255"`
	DialogueTone         string `json:"dialogue_tone,omitempty" validate:"max=255"`
	DialogueLanguage     string `json:"dialogue_language" validate:"required,max=64"`
	CharacterPresence    string `json:"character_presence" validate:"required,oneof=voiceover show partial"`
	CharacterSource      string `json:"character_source,omitempty" validate:"omitempty,oneof=library upload describe"`
	CharacterDescription string `json:"character_description,omitempty" validate:"max=2000"`
	PartialType          string `json:"partial_type,omitempty" validate:"max=255"`
	AvatarID             string `json:"avatar_id,omitempty" validate:"omitempty,uuid"`
	ProductID            string `json:"product_id,omitempty" validate:"omitempty,uuid"`
	TwoImageMode         string `json:"two_image_mode,omitempty" validate:"omitempty,oneof=start-end comparison transformation flexible"`
	SceneDescription     string `json:"scene_description,omitempty" validate:"max=2000"`
	ContainsBoth         bool   `json:"contains_both,omitempty"`
	ImageDescription     string `json:"image_description,omitempty" validate:"max=2000"`
	Template             string `json:"template,omitempty" validate:"max=255"`

	BrandTone    string `json:"brand_tone,omitempty"`
	VisualFocus  string `json:"visual_focus,omitempty"`
	CoreAngle    string `json:"core_angle,omitempty"`
	CameraRhythm string `json:"camera_rhythm,omitempty"`
	MusicMood    string `json:"music_mood,omitempty"`

	Config                *UGCConfig      `json:"config,omitempty"`
	RawConfig             json.RawMessage `json:"-"`
	CharacterDescriptions []string        `json:"character_descriptions,omitempty"`
	DialogueLines         []DialogueLine  `json:"dialogue_lines,omitempty"`
	SceneScripts          *SceneScripts   `json:"scene_scripts,omitempty"`
	Images                []ImageSlot     `json:"images,omitempty" validate:"dive"`

	// Sources records which input won for each soft-required field.
	Sources map[string]string `json:"sources,omitempty"`
}

// CustomFields is the flat creative subset stored under content.custom_fields.
func (r *NormalizedRequest) CustomFields() map[string]interface{} {
	fields := map[string]interface{}{}
	set := func(k, v string) {
		if v != "" {
			fields[k] = v
		}
	}
	set("brand_tone", r.BrandTone)
	set("visual_focus", r.VisualFocus)
	set("core_angle", r.CoreAngle)
	set("camera_rhythm", r.CameraRhythm)
	set("music_mood", r.MusicMood)
	set("template", r.Template)
	set("scene_description", r.SceneDescription)
	set("image_description", r.ImageDescription)
	if r.ContainsBoth {
		fields["contains_both"] = true
	}
	return fields
}

// Source is one candidate in a precedence list. Value returns "" when the
// candidate has nothing to offer.
type Source struct {
	Name  string
	Value func(in *sourceInput) string
}

type sourceInput struct {
	form      *ParsedForm
	config    *UGCConfig
	brandName string
}

func formSource(name string) Source {
	return Source{Name: name, Value: func(in *sourceInput) string { return in.form.Value(name) }}
}

func constSource(v string) Source {
	return Source{Name: "default", Value: func(*sourceInput) string { return v }}
}

var (
	dialogueScriptNames = []string{"dialogue_script", "script"}

	BrandNameSources = []Source{
		formSource("brand_name"),
		formSource("brandName"),
		{Name: "config.brandDNA.name", Value: func(in *sourceInput) string { return strings.TrimSpace(in.config.brandName()) }},
		constSource(DefaultBrandName),
	}

	BrandPromptSources = []Source{
		formSource("brand_prompt"),
		formSource("brandPrompt"),
		formSource("dialogue_script"),
		formSource("script"),
		{Name: "config.productEssence.heroBenefit", Value: func(in *sourceInput) string { return strings.TrimSpace(in.config.heroBenefit()) }},
	}

	ProjectTitleSources = []Source{
		formSource("project_title"),
		formSource("title"),
		formSource("projectTitle"),
		{Name: "derived", Value: func(in *sourceInput) string {
			if in.brandName == "" {
				return ""
			}
			return truncateRunes(in.brandName+" UGC Ad", maxTitleLen)
		}},
	}

	EmotionalToneSources = []Source{
		formSource("emotional_tone"),
		formSource("emotionalTone"),
		formSource("emotion_tone"),
		{Name: "config.storyDNA.emotionTone", Value: func(in *sourceInput) string {
			tone := in.config.emotionTone()
			if tone == nil {
				return ""
			}
			return strconv.FormatFloat(*tone, 'f', -1, 64)
		}},
	}
)

// resolve walks sources in order and returns the first non-empty value along
// with the name of the source that produced it.
func resolve(sources []Source, in *sourceInput) (string, string) {
	for _, s := range sources {
		if v := s.Value(in); v != "" {
			return v, s.Name
		}
	}
	return "", ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize turns the raw form into a NormalizedRequest. The request is
// always returned, populated as far as parsing allowed; a non-nil
// *ValidationError lists every failing field.
func Normalize(form *ParsedForm) (*NormalizedRequest, error) {
	var details []models.FieldDetail
	fail := func(field, msg string) {
		details = append(details, models.FieldDetail{Field: field, Message: msg})
	}

	req := &NormalizedRequest{
		ProductName:          form.Value("product_name", "productName"),
		Mode:                 orDefault(form.Value("mode", "output_mode", "outputMode"), DefaultMode),
		AspectRatio:          orDefault(form.Value("aspect_ratio", "aspectRatio"), DefaultAspectRatio),
		Duration:             DefaultDuration,
		DialogueScript:       form.Value(dialogueScriptNames...),
		DialogueVoiceType:    form.Value("dialogue_voice_type", "voice_style", "voiceStyle"),
		DialogueTone:         form.Value("dialogue_tone", "tone_of_delivery", "toneOfDelivery"),
		DialogueLanguage:     orDefault(form.Value("dialogue_language", "language"), DefaultLanguage),
		CharacterPresence:    orDefault(form.Value("character_presence", "characterPresence"), DefaultCharacterPresence),
		CharacterSource:      form.Value("character_source", "characterSource"),
		CharacterDescription: form.Value("character_description", "characterDescription"),
		PartialType:          form.Value("partial_type", "partialType"),
		AvatarID:             form.Value("avatar_id", "selectedAvatarId"),
		ProductID:            form.Value("product_id", "selectedProductId"),
		TwoImageMode:         form.Value("two_image_mode", "twoImageMode"),
		SceneDescription:     form.Value("scene_description", "sceneDescription"),
		ContainsBoth:         parseBool(form.Value("contains_both", "containsBoth")),
		ImageDescription:     form.Value("image_description", "imageDescription"),
		Template:             form.Value("template"),
		BrandTone:            form.Value("brand_tone", "brandTone"),
		VisualFocus:          form.Value("visual_focus", "visualFocus"),
		CoreAngle:            form.Value("core_angle", "coreAngle"),
		CameraRhythm:         form.Value("camera_rhythm", "cameraRhythm"),
		MusicMood:            form.Value("music_mood", "musicMood"),
		Sources:              map[string]string{},
	}

	if raw, ok := form.Get("config", "parsedConfig"); ok {
		var cfg UGCConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			fail("config", err.Error())
		} else {
			req.Config = &cfg
			req.RawConfig = json.RawMessage(raw)
		}
	}
	if raw, ok := form.Get("character_descriptions", "characterDescriptions"); ok {
		if err := json.Unmarshal([]byte(raw), &req.CharacterDescriptions); err != nil {
			fail("character_descriptions", err.Error())
		}
	}
	if raw, ok := form.Get("dialogue_lines", "dialogueLines"); ok {
		if err := json.Unmarshal([]byte(raw), &req.DialogueLines); err != nil {
			fail("dialogue_lines", err.Error())
		}
	}
	if raw, ok := form.Get("scene_scripts", "sceneScripts"); ok {
		var scripts SceneScripts
		if err := json.Unmarshal([]byte(raw), &scripts); err != nil {
			fail("scene_scripts", err.Error())
		} else {
			req.SceneScripts = &scripts
		}
	}

	in := &sourceInput{form: form, config: req.Config}
	var from string
	req.BrandName, from = resolve(BrandNameSources, in)
	req.Sources["brand_name"] = from
	in.brandName = req.BrandName

	req.BrandPrompt, from = resolve(BrandPromptSources, in)
	if from != "" {
		req.Sources["brand_prompt"] = from
	}
	req.ProjectTitle, from = resolve(ProjectTitleSources, in)
	if from != "" {
		req.Sources["project_title"] = from
	}

	if raw, ok := form.Get("duration"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail("duration", "must be an integer")
		} else {
			req.Duration = n
		}
	}
	if raw, src := resolve(EmotionalToneSources, in); raw != "" {
		n, err := parseTone(raw)
		if err != nil {
			fail("emotional_tone", "must be a number")
		} else {
			req.EmotionalTone = &n
			req.Sources["emotional_tone"] = src
		}
	}

	for i := 1; i <= maxImageSlots; i++ {
		if slot, ok := parseImageSlot(form, i); ok {
			req.Images = append(req.Images, slot)
		}
	}

	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fail(fieldName(fe, req.Images), fieldMessage(fe))
			}
		} else {
			fail("request", err.Error())
		}
	}

	if len(details) > 0 {
		return req, &ValidationError{Details: details}
	}
	return req, nil
}

func parseImageSlot(form *ParsedForm, i int) (ImageSlot, bool) {
	prefix := fmt.Sprintf("image%d", i)
	slot := ImageSlot{
		Index:        i,
		Source:       form.Value(prefix + "Source"),
		Purpose:      form.Value(prefix + "Purpose"),
		ContainsBoth: parseBool(form.Value(prefix + "ContainsBoth")),
		Description:  form.Value(prefix + "Description"),
		HasFile:      form.HasFile(prefix),
	}
	present := slot.HasFile || slot.Source != "" || slot.Purpose != "" || slot.ContainsBoth || slot.Description != ""
	return slot, present
}

// parseTone accepts integers and integral floats ("72", "72.0").
func parseTone(raw string) (int, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %s", raw)
	}
	return int(f), nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// maxTitleLen matches the max=255 rule on project_title.
const maxTitleLen = 255

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var imageFieldRe = regexp.MustCompile(`^images\[(\d+)\]\.(\w+)$`)

// fieldName reports nested image errors with their form names, e.g.
// images[0].source becomes image1Source.
func fieldName(fe validator.FieldError, images []ImageSlot) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if m := imageFieldRe.FindStringSubmatch(ns); m != nil {
		idx, _ := strconv.Atoi(m[1])
		if idx < len(images) {
			idx = images[idx].Index
		} else {
			idx++
		}
		return fmt.Sprintf("image%d%s", idx, strings.ToUpper(m[2][:1])+m[2][1:])
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
