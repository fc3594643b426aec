package ugcads

// UGCConfig is the grouped creative configuration posted as the `config`
// JSON part.
type UGCConfig struct {
	BrandDNA       *BrandDNA       `json:"brandDNA,omitempty"`
	ProductEssence *ProductEssence `json:"productEssence,omitempty"`
	StoryDNA       *StoryDNA       `json:"storyDNA,omitempty"`
	CameraDNA      *CameraDNA      `json:"cameraDNA,omitempty"`
	AudioDNA       *AudioDNA       `json:"audioDNA,omitempty"`
}

type BrandDNA struct {
	Name      string `json:"name,omitempty"`
	Tone      string `json:"tone,omitempty"`
	ColorCode string `json:"colorCode,omitempty"`
}

type ProductEssence struct {
	Name               string   `json:"name,omitempty"`
	HeroBenefit        string   `json:"heroBenefit,omitempty"`
	VisualFocus        string   `json:"visualFocus,omitempty"`
	Environment        string   `json:"environment,omitempty"`
	Materials          []string `json:"materials,omitempty"`
	TransformationType string   `json:"transformationType,omitempty"`
}

type StoryDNA struct {
	CoreAngle            string   `json:"coreAngle,omitempty"`
	Persona              string   `json:"persona,omitempty"`
	EmotionTone          *float64 `json:"emotionTone,omitempty"`
	PatternInterruptType string   `json:"patternInterruptType,omitempty"`
	HookFramework        string   `json:"hookFramework,omitempty"`
}

type CameraDNA struct {
	Rhythm        string `json:"rhythm,omitempty"`
	MovementStyle string `json:"movementStyle,omitempty"`
	CutFrequency  string `json:"cutFrequency,omitempty"`
	EndingType    string `json:"endingType,omitempty"`
}

type AudioDNA struct {
	SoundMode    string   `json:"soundMode,omitempty"`
	SoundEmotion string   `json:"soundEmotion,omitempty"`
	KeySounds    []string `json:"keySounds,omitempty"`
}

type DialogueLine struct {
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

type SceneScripts struct {
	Scene1 string `json:"scene1,omitempty"`
	Scene2 string `json:"scene2,omitempty"`
	Scene3 string `json:"scene3,omitempty"`
}

// ImageSlot is the per-image metadata sent as image{n}Source, image{n}Purpose,
// image{n}ContainsBoth and image{n}Description.
type ImageSlot struct {
	Index        int    `json:"index"`
	Source       string `json:"source,omitempty" validate:"omitempty,oneof=library upload"`
	Purpose      string `json:"purpose,omitempty"`
	ContainsBoth bool   `json:"containsBoth,omitempty"`
	Description  string `json:"description,omitempty"`
	HasFile      bool   `json:"hasFile"`
}

func (c *UGCConfig) brandName() string {
	if c == nil || c.BrandDNA == nil {
		return ""
	}
	return c.BrandDNA.Name
}

func (c *UGCConfig) heroBenefit() string {
	if c == nil || c.ProductEssence == nil {
		return ""
	}
	return c.ProductEssence.HeroBenefit
}

func (c *UGCConfig) emotionTone() *float64 {
	if c == nil || c.StoryDNA == nil {
		return nil
	}
	return c.StoryDNA.EmotionTone
}
