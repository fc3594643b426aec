package ugcads

import (
	"fmt"
	"strings"

	"dreamcut-backend/internal/models"
)

type DialogueParams struct {
	Script         string
	VoiceStyle     string
	ToneOfDelivery string
	Language       string
}

// PromptInput is everything the prompt depends on. BuildPrompt is pure over it.
type PromptInput struct {
	Config                *UGCConfig
	Brief                 string
	Dialogue              DialogueParams
	DialogueLines         []DialogueLine
	CharacterDescriptions []string
	AspectRatio           string
	Duration              int
	Product               *models.ProductAsset
	Avatar                *models.AvatarAsset
	ContainsBoth          bool
	ImageDescription      string
	TwoImageMode          string
	Images                []ImageSlot
	SceneScripts          *SceneScripts
	SceneDescription      string
}

var twoImageModeGuidance = map[string]string{
	"start-end":      "Two-image mode: start and end frame control with smooth transition",
	"comparison":     "Two-image mode: product comparison across two visuals",
	"transformation": "Two-image mode: before and after transformation",
	"flexible":       "Two-image mode: one product and one style reference",
}

// NewPromptInput assembles the prompt input from a normalized request and
// whatever library assets resolved.
func NewPromptInput(req *NormalizedRequest, assets ResolvedAssets) PromptInput {
	in := PromptInput{
		Config: effectiveConfig(req),
		Dialogue: DialogueParams{
			Script:         req.DialogueScript,
			VoiceStyle:     req.DialogueVoiceType,
			ToneOfDelivery: req.DialogueTone,
			Language:       req.DialogueLanguage,
		},
		DialogueLines:         req.DialogueLines,
		CharacterDescriptions: req.CharacterDescriptions,
		AspectRatio:           req.AspectRatio,
		Duration:              req.Duration,
		Product:               assets.Product,
		Avatar:                assets.Avatar,
		ContainsBoth:          req.ContainsBoth,
		ImageDescription:      req.ImageDescription,
		TwoImageMode:          req.TwoImageMode,
		Images:                req.Images,
		SceneScripts:          req.SceneScripts,
		SceneDescription:      req.SceneDescription,
	}
	if req.BrandPrompt != req.DialogueScript {
		in.Brief = req.BrandPrompt
	}
	if req.CharacterDescription != "" {
		in.CharacterDescriptions = append([]string{req.CharacterDescription}, req.CharacterDescriptions...)
	}
	return in
}

// effectiveConfig copies the posted config and fills empty slots from the
// flat form fields, so both client generations produce the same prompt.
func effectiveConfig(req *NormalizedRequest) *UGCConfig {
	cfg := UGCConfig{}
	if req.Config != nil {
		cfg = *req.Config
	}
	brand := BrandDNA{}
	if cfg.BrandDNA != nil {
		brand = *cfg.BrandDNA
	}
	if brand.Name == "" {
		brand.Name = req.BrandName
	}
	if brand.Tone == "" {
		brand.Tone = req.BrandTone
	}
	cfg.BrandDNA = &brand

	product := ProductEssence{}
	if cfg.ProductEssence != nil {
		product = *cfg.ProductEssence
	}
	if product.Name == "" {
		product.Name = req.ProductName
	}
	if product.VisualFocus == "" {
		product.VisualFocus = req.VisualFocus
	}
	cfg.ProductEssence = &product

	story := StoryDNA{}
	if cfg.StoryDNA != nil {
		story = *cfg.StoryDNA
	}
	if story.CoreAngle == "" {
		story.CoreAngle = req.CoreAngle
	}
	if req.EmotionalTone != nil {
		tone := float64(*req.EmotionalTone)
		story.EmotionTone = &tone
	}
	cfg.StoryDNA = &story

	camera := CameraDNA{}
	if cfg.CameraDNA != nil {
		camera = *cfg.CameraDNA
	}
	if camera.Rhythm == "" {
		camera.Rhythm = req.CameraRhythm
	}
	cfg.CameraDNA = &camera

	audio := AudioDNA{}
	if cfg.AudioDNA != nil {
		audio = *cfg.AudioDNA
	}
	if audio.SoundEmotion == "" {
		audio.SoundEmotion = req.MusicMood
	}
	cfg.AudioDNA = &audio

	return &cfg
}

// BuildPrompt renders the generation prompt as ". "-joined sentences ending
// in a period. Empty groups are skipped.
func BuildPrompt(in PromptInput) string {
	parts := []string{"Create an authentic UGC-style product advertisement video"}
	add := func(label string, bits []string) {
		if len(bits) > 0 {
			parts = append(parts, label+strings.Join(bits, ", "))
		}
	}

	if s := strings.TrimSpace(in.Brief); s != "" {
		parts = append(parts, "Brief: "+s)
	}
	if s := strings.TrimSpace(in.Dialogue.Script); s != "" {
		parts = append(parts, "Script: "+s)
	}
	var voice []string
	voice = appendBit(voice, "voice style ", in.Dialogue.VoiceStyle)
	voice = appendBit(voice, "tone ", in.Dialogue.ToneOfDelivery)
	voice = appendBit(voice, "language ", in.Dialogue.Language)
	add("Narration: ", voice)

	if len(in.DialogueLines) > 0 {
		var lines []string
		for _, l := range in.DialogueLines {
			text := strings.TrimSpace(l.Text)
			if text == "" {
				continue
			}
			if l.Speaker != "" {
				text = l.Speaker + ": " + text
			}
			lines = append(lines, text)
		}
		if len(lines) > 0 {
			parts = append(parts, "Dialogue: "+strings.Join(lines, " | "))
		}
	}

	if cfg := in.Config; cfg != nil {
		if b := cfg.BrandDNA; b != nil {
			var bits []string
			bits = appendBit(bits, "brand ", b.Name)
			bits = appendBit(bits, "tone ", b.Tone)
			bits = appendBit(bits, "brand color ", b.ColorCode)
			add("Brand DNA: ", bits)
		}
		if p := cfg.ProductEssence; p != nil {
			var bits []string
			bits = appendBit(bits, "product ", p.Name)
			bits = appendBit(bits, "hero benefit ", p.HeroBenefit)
			bits = appendBit(bits, "visual focus ", p.VisualFocus)
			bits = appendBit(bits, "environment ", p.Environment)
			bits = appendBit(bits, "materials ", strings.Join(p.Materials, ", "))
			bits = appendBit(bits, "transformation ", p.TransformationType)
			add("Product Essence: ", bits)
		}
		if s := cfg.StoryDNA; s != nil {
			var bits []string
			bits = appendBit(bits, "core angle ", s.CoreAngle)
			bits = appendBit(bits, "persona ", s.Persona)
			bits = appendBit(bits, "pattern interrupt ", s.PatternInterruptType)
			bits = appendBit(bits, "hook framework ", s.HookFramework)
			if s.EmotionTone != nil {
				bits = append(bits, fmt.Sprintf("emotion tone %g/100", *s.EmotionTone))
			}
			add("Story DNA: ", bits)
		}
		if c := cfg.CameraDNA; c != nil {
			var bits []string
			bits = appendBit(bits, "rhythm ", c.Rhythm)
			bits = appendBit(bits, "movement ", c.MovementStyle)
			bits = appendBit(bits, "cut frequency ", c.CutFrequency)
			bits = appendBit(bits, "ending ", c.EndingType)
			add("Camera DNA: ", bits)
		}
		if a := cfg.AudioDNA; a != nil {
			var bits []string
			bits = appendBit(bits, "mode ", a.SoundMode)
			bits = appendBit(bits, "mood ", a.SoundEmotion)
			bits = appendBit(bits, "key sfx ", strings.Join(a.KeySounds, ", "))
			add("Audio DNA: ", bits)
		}
	}

	if p := in.Product; p != nil {
		var bits []string
		bits = appendBit(bits, "library product ", p.Title)
		bits = appendBit(bits, "desc ", p.Description)
		if p.ImageURL != "" || p.StoragePath != "" {
			bits = append(bits, "ref image provided")
		}
		add("Product Asset: ", bits)
	}
	if a := in.Avatar; a != nil {
		var bits []string
		bits = appendBit(bits, "avatar ", a.Name)
		bits = appendBit(bits, "ethnicity ", a.Ethnicity)
		bits = appendBit(bits, "gender ", a.Gender)
		add("Character Asset: ", bits)
	}
	var chars []string
	for _, d := range in.CharacterDescriptions {
		chars = appendBit(chars, "", d)
	}
	if len(chars) > 0 {
		parts = append(parts, "Characters: "+strings.Join(chars, " | "))
	}

	if in.ContainsBoth {
		parts = append(parts, "Uploaded image contains both character and product")
	}
	if s := strings.TrimSpace(in.ImageDescription); s != "" {
		parts = append(parts, "Image description: "+s)
	}
	if g, ok := twoImageModeGuidance[in.TwoImageMode]; ok {
		parts = append(parts, g)
	}

	for _, img := range in.Images {
		var hints []string
		hints = appendBit(hints, "source ", img.Source)
		hints = appendBit(hints, "purpose ", img.Purpose)
		if img.ContainsBoth {
			hints = append(hints, "contains both subject and product")
		}
		hints = appendBit(hints, "hint ", img.Description)
		add(fmt.Sprintf("Image %d: ", img.Index), hints)
	}

	if sc := in.SceneScripts; sc != nil {
		var beats []string
		beats = appendBit(beats, "Opening: ", sc.Scene1)
		beats = appendBit(beats, "Transition: ", sc.Scene2)
		beats = appendBit(beats, "Closing: ", sc.Scene3)
		if len(beats) > 0 {
			parts = append(parts, "Scene beats -> "+strings.Join(beats, " | "))
		}
	}
	if s := strings.TrimSpace(in.SceneDescription); s != "" {
		parts = append(parts, "Scene description: "+s)
	}

	if in.AspectRatio != "" {
		parts = append(parts, "Aspect ratio "+in.AspectRatio)
	}
	if in.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Target duration %ds", in.Duration))
	}

	result := strings.Join(parts, ". ")
	if !strings.HasSuffix(result, ".") {
		result += "."
	}
	return result
}

func appendBit(bits []string, label, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return bits
	}
	return append(bits, label+value)
}
