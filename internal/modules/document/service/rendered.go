package service

import "image"

type RenderedPage struct {
	Page  int
	Image *image.Gray
	Text  string
}
